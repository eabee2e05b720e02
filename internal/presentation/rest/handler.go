package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/bibbank/skills/internal/application/dto"
	"github.com/bibbank/skills/internal/application/usecase"
	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/pkg/auth"
)

// maxBodyBytes caps an evaluation request body.
const maxBodyBytes = 1 << 20

// SkillHandler serves the skill catalog and evaluations over HTTP JSON.
type SkillHandler struct {
	listSkills      *usecase.ListSkills
	describeSkill   *usecase.DescribeSkill
	evaluateSkill   *usecase.EvaluateSkill
	getEvaluation   *usecase.GetEvaluation
	listEvaluations *usecase.ListEvaluations
	logger          *slog.Logger
}

// NewSkillHandler creates a new HTTP skill handler.
func NewSkillHandler(
	listSkills *usecase.ListSkills,
	describeSkill *usecase.DescribeSkill,
	evaluateSkill *usecase.EvaluateSkill,
	getEvaluation *usecase.GetEvaluation,
	listEvaluations *usecase.ListEvaluations,
	logger *slog.Logger,
) *SkillHandler {
	return &SkillHandler{
		listSkills:      listSkills,
		describeSkill:   describeSkill,
		evaluateSkill:   evaluateSkill,
		getEvaluation:   getEvaluation,
		listEvaluations: listEvaluations,
		logger:          logger,
	}
}

// RegisterRoutes registers the v1 API on the provided ServeMux.
func (h *SkillHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/skills", h.ListSkills)
	mux.HandleFunc("GET /v1/skills/{name}", h.DescribeSkill)
	mux.HandleFunc("POST /v1/skills/{name}/evaluate", h.Evaluate)
	mux.HandleFunc("GET /v1/skills/{name}/evaluations", h.ListEvaluations)
	mux.HandleFunc("GET /v1/evaluations/{id}", h.GetEvaluation)
}

// ListSkills handles GET /v1/skills.
func (h *SkillHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"skills": h.listSkills.Execute(r.Context())})
}

// DescribeSkill handles GET /v1/skills/{name}.
func (h *SkillHandler) DescribeSkill(w http.ResponseWriter, r *http.Request) {
	desc, err := h.describeSkill.Execute(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// Evaluate handles POST /v1/skills/{name}/evaluate. The body is the input object.
func (h *SkillHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	in, err := record.FromJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		badRequest(w, "request body must be a JSON object: "+err.Error())
		return
	}

	resp, err := h.evaluateSkill.Execute(r.Context(), dto.EvaluateRequest{
		Skill:    r.PathValue("name"),
		TenantID: auth.TenantFromContext(r.Context()),
		Input:    in,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetEvaluation handles GET /v1/evaluations/{id}.
func (h *SkillHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		badRequest(w, "invalid evaluation id")
		return
	}

	resp, err := h.getEvaluation.Execute(r.Context(), dto.GetEvaluationRequest{
		TenantID:     auth.TenantFromContext(r.Context()),
		EvaluationID: id,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEvaluations handles GET /v1/skills/{name}/evaluations?limit=&offset=.
func (h *SkillHandler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		badRequest(w, "invalid offset")
		return
	}

	list, err := h.listEvaluations.Execute(r.Context(), dto.ListEvaluationsRequest{
		TenantID: auth.TenantFromContext(r.Context()),
		Skill:    r.PathValue("name"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": list})
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
