package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/coordinator"
)

// TrainAccepted is the body of a started training run.
type TrainAccepted struct {
	RunID string `json:"run_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.coord.Status(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, status)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	runID, err := s.coord.StartTraining(r.Context())
	if err != nil {
		if errors.Is(err, common.ErrTrainingInProgress) {
			TrainingRequests.WithLabelValues("rejected").Inc()
		}
		respondErr(w, err)
		return
	}
	TrainingRequests.WithLabelValues("started").Inc()
	respondData(w, http.StatusAccepted, TrainAccepted{RunID: runID})
}

func (s *Server) handleTrainingStatus(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, s.coord.TrainingStatus())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req coordinator.AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		AnalysisErrors.WithLabelValues(CodeInvalidRequest).Inc()
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := s.coord.Analyze(r.Context(), req)
	if err != nil {
		AnalysisErrors.WithLabelValues(string(common.KindOf(err))).Inc()
		respondErr(w, err)
		return
	}

	AssessmentsTotal.WithLabelValues(a.Risk.String(), a.Branch).Inc()
	AssessmentConfidence.Observe(a.Confidence)
	respondData(w, http.StatusOK, a)
}
