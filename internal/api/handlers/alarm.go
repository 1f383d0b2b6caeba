package handlers

import (
	"net/http"

	"github.com/nicuwatch/nicudash/internal/api/dto"
	"github.com/nicuwatch/nicudash/internal/api/middleware"
	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/utils"
)

type AlarmHandler struct {
	query     alarm.QueryService
	processor alarm.ActionProcessor
	logger    *logger.Logger
}

func NewAlarmHandler(query alarm.QueryService, processor alarm.ActionProcessor, log *logger.Logger) *AlarmHandler {
	return &AlarmHandler{
		query:     query,
		processor: processor,
		logger:    log,
	}
}

// List returns the alarm feed
// @Summary List alarms
// @Description Severity-ordered alarm feed with per-type counts for the status filter
// @Tags Alarms
// @Produce json
// @Param status query string false "active (default), acknowledged, silenced, resolved or all"
// @Param type query string false "critical, warning or advisory"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 50, max: 200)"
// @Success 200 {object} utils.SuccessResponse{data=[]dto.AlarmFeedItemDTO,meta=utils.ListMeta} "Alarm feed"
// @Failure 401 {object} utils.ErrorResponse "Authentication required"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alarms [get]
func (h *AlarmHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	res, err := h.query.List(r.Context(), actor, utils.ParseListQuery(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list alarms")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FeedItemsToDTO(res.Items), utils.NewListMeta(res))
}

// Apply runs a batch action
// @Summary Apply alarm action
// @Description Acknowledge, silence or resolve a set of alarms in one transaction. Unknown ids are skipped.
// @Tags Alarms
// @Accept json
// @Produce json
// @Param request body alarm.ActionRequest true "Action request"
// @Success 200 {object} utils.SuccessResponse{data=[]alarm.Alarm,meta=dto.ActionMeta} "Updated alarms"
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 401 {object} utils.ErrorResponse "Authentication required"
// @Failure 403 {object} utils.ErrorResponse "Role may not act on alarms"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alarms [post]
func (h *AlarmHandler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req alarm.ActionRequest
	malformed, appErr := decodeJSON(w, r, &req)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	req.Malformed = malformed

	res, err := h.processor.Apply(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to apply alarm action")
		return
	}

	writeActionResult(w, res)
}

// ResolvePatient resolves every open alarm of a discharged patient
// @Summary Resolve patient alarms
// @Description Discharge hook. Resolves all non-resolved alarms of the patient.
// @Tags Alarms
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} utils.SuccessResponse{data=[]alarm.Alarm,meta=dto.ActionMeta} "Resolved alarms"
// @Failure 404 {object} utils.ErrorResponse "Patient not found"
// @Security BearerAuth
// @Router /patients/{id}/alarms/resolve [post]
func (h *AlarmHandler) ResolvePatient(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	patientID, appErr := patientIDParam(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	res, err := h.processor.ResolvePatientAlarms(r.Context(), actor, patientID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to resolve patient alarms")
		return
	}

	writeActionResult(w, res)
}

func writeActionResult(w http.ResponseWriter, res *alarm.ActionResult) {
	if res == nil {
		utils.WriteError(w, errors.Internal("Internal server error", nil))
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, res.Message(), dto.AlarmsOrEmpty(res.Alarms), dto.ActionMeta{Processed: res.Processed})
}
