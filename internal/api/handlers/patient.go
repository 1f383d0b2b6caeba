package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/nicuwatch/nicudash/internal/api/dto"
	"github.com/nicuwatch/nicudash/internal/api/middleware"
	"github.com/nicuwatch/nicudash/internal/domain/patient"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/utils"
	"github.com/nicuwatch/nicudash/internal/pkg/validator"
)

type PatientHandler struct {
	service patient.Service
	logger  *logger.Logger
}

func NewPatientHandler(service patient.Service, log *logger.Logger) *PatientHandler {
	return &PatientHandler{service: service, logger: log}
}

// GetAlarmLimits returns a patient's alarm limits
// @Summary Get alarm limits
// @Tags Patients
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.AlarmLimitsDTO} "Alarm limits"
// @Failure 404 {object} utils.ErrorResponse "Patient not found"
// @Security BearerAuth
// @Router /patients/{id}/alarm-limits [get]
func (h *PatientHandler) GetAlarmLimits(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	patientID, appErr := patientIDParam(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	limits, err := h.service.GetAlarmLimits(r.Context(), actor, patientID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get alarm limits")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.AlarmLimitsDTO{PatientID: patientID, AlarmLimits: limits}, nil)
}

// UpdateAlarmLimits validates and replaces a patient's alarm limits
// @Summary Update alarm limits
// @Description Every [low, high] pair must lie inside the parameter's physiological envelope with low <= high
// @Tags Patients
// @Accept json
// @Produce json
// @Param id path int true "Patient ID"
// @Param request body dto.UpdateAlarmLimitsRequest true "New limits"
// @Success 200 {object} utils.SuccessResponse{data=dto.AlarmLimitsDTO} "Updated limits"
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 404 {object} utils.ErrorResponse "Patient not found"
// @Security BearerAuth
// @Router /patients/{id}/alarm-limits [put]
func (h *PatientHandler) UpdateAlarmLimits(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	patientID, appErr := patientIDParam(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	var req dto.UpdateAlarmLimitsRequest
	malformed, appErr := decodeJSON(w, r, &req)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	if len(malformed) > 0 {
		utils.WriteError(w, errors.ValidationError("Invalid alarm limits", malformed))
		return
	}
	if req.AlarmLimits == nil {
		utils.WriteError(w, errors.ValidationError("Invalid alarm limits", []validator.ValidationError{{
			Field:   "alarmLimits",
			Message: "alarmLimits is required",
		}}))
		return
	}

	limits, mistyped := decodeAlarmLimits(req.AlarmLimits)
	if len(mistyped) > 0 {
		violations := validator.Merge(mistyped, patient.ValidateAlarmLimits(limits))
		sort.SliceStable(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
		utils.WriteError(w, errors.ValidationError("Invalid alarm limits", violations))
		return
	}

	if err := h.service.UpdateAlarmLimits(r.Context(), actor, patientID, limits); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update alarm limits")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Alarm limits updated",
		dto.AlarmLimitsDTO{PatientID: patientID, AlarmLimits: limits}, nil)
}

// decodeAlarmLimits decodes each parameter's bounds on its own so one malformed pair does not hide the others.
func decodeAlarmLimits(raw map[string]json.RawMessage) (patient.AlarmLimits, []validator.ValidationError) {
	limits := make(patient.AlarmLimits, len(raw))
	var mistyped []validator.ValidationError
	for param, v := range raw {
		var bounds []float64
		if err := json.Unmarshal(v, &bounds); err != nil {
			mistyped = append(mistyped, validator.ValidationError{
				Field:   param,
				Tag:     "type",
				Message: fmt.Sprintf("%s must be a [low, high] pair of numbers", param),
			})
			continue
		}
		limits[param] = bounds
	}
	return limits, mistyped
}
