package importcsv

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/fleetspend/internal/http/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/importer"
	"github.com/MrJamesThe3rd/fleetspend/internal/matching"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
	matchSvc  *matching.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service, matchSvc *matching.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
		matchSvc:  matchSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported     int               `json:"imported"`
	Transactions []txhttp.Response `json:"transactions"`
}

type conflictDTO struct {
	Incoming txhttp.ParamsDTO `json:"incoming"`
	Existing txhttp.Response  `json:"existing"`
}

type importConflictResponse struct {
	New       []txhttp.ParamsDTO `json:"new"`
	Conflicts []conflictDTO      `json:"conflicts"`
}

type confirmRequest struct {
	Params []txhttp.ParamsDTO `json:"params"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Source(r.FormValue("source")), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	accountID := middleware.AccountID(r.Context())

	if err := h.matchSvc.Canonicalize(r.Context(), accountID, params); err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.txSvc.ImportBatch(r.Context(), accountID, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]txhttp.ParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, p := range result.New {
			resp.New = append(resp.New, txhttp.ToParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: txhttp.ToParamsDTO(c.Incoming),
				Existing: txhttp.ToResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	params := make([]transaction.CreateParams, 0, len(req.Params))

	for i, p := range req.Params {
		cp, err := p.ToParams()
		if err != nil {
			respond.Error(w, r, apperr.Invalid("params", "row %d: %s", i+1, err))
			return
		}

		params = append(params, cp)
	}

	txs, err := h.txSvc.CreateBatch(r.Context(), middleware.AccountID(r.Context()), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toSuccessResponse(txs))
}

func toSuccessResponse(txs []*transaction.Transaction) importSuccessResponse {
	return importSuccessResponse{
		Imported:     len(txs),
		Transactions: txhttp.ToResponseList(txs),
	}
}
