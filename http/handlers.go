package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"survivalpredict/ml"
)

type handlers struct {
	deps     Deps
	upgrader websocket.Upgrader
}

func newHandlers(deps Deps) *handlers {
	return &handlers{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/models", h.handleModels)
	mux.HandleFunc("POST /api/predict", h.handlePredictJSON)
	mux.HandleFunc("GET /api/ws/predict", h.handleWebSocket)
}

func (h *handlers) language(r *http.Request) language.Tag {
	return matchLanguage(r.FormValue("lang"), h.deps.Language)
}

// predict wraps the service call with metrics.
func (h *handlers) predict(kind ml.ModelKind, passenger ml.PassengerRecord) (ml.Prediction, error) {
	start := time.Now()
	pred, err := h.deps.Predictor.Predict(kind, passenger)
	if err != nil {
		h.deps.Metrics.RecordPredictionError(errorReason(err))
		return ml.Prediction{}, err
	}
	h.deps.Metrics.RecordPrediction(kind.Slug(), pred.Result.Label, pred.Cached, time.Since(start))
	return pred, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ml.ErrInvalidPassenger):
		return "invalid_passenger"
	case errors.Is(err, ml.ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, ml.ErrFeatureMismatch):
		return "feature_mismatch"
	default:
		return "internal"
	}
}

func statusFor(err error) int {
	if errors.Is(err, ml.ErrInvalidPassenger) || errors.Is(err, ml.ErrUnknownModel) {
		return http.StatusBadRequest
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (h *handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	models := h.deps.Predictor.Models()
	h.writePage(w, r, http.StatusOK, newPageData(h.language(r), defaultFormValues(models), models))
}

func (h *handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	models := h.deps.Predictor.Models()
	form, kind, passenger, err := parsePredictForm(r, models)
	tag := h.language(r)
	data := newPageData(tag, form, models)
	if err != nil {
		h.deps.Metrics.RecordPredictionError(errorReason(err))
	} else {
		var pred ml.Prediction
		pred, err = h.predict(kind, passenger)
		if err == nil {
			data.Result = newResultView(message.NewPrinter(tag), pred)
			h.writePage(w, r, http.StatusOK, data)
			return
		}
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.deps.Logger.Error("form prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		data.ErrorTitle = "Something went wrong"
		data.Error = http.StatusText(status)
	} else {
		data.ErrorTitle = "Invalid input"
		data.Error = err.Error()
	}
	h.writePage(w, r, status, data)
}

func (h *handlers) writePage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := renderPage(&buf, data); err != nil {
		h.deps.Logger.Error("render page", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type modelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *handlers) handleModels(w http.ResponseWriter, r *http.Request) {
	kinds := h.deps.Predictor.Models()
	models := make([]modelInfo, 0, len(kinds))
	for _, kind := range kinds {
		models = append(models, modelInfo{ID: kind.Slug(), Name: kind.String()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

type predictRequest struct {
	Model     string             `json:"model"`
	Passenger ml.PassengerRecord `json:"passenger"`
	Lang      string             `json:"lang,omitempty"`
}

type probabilityPair struct {
	NotSurvived float64 `json:"not_survived"`
	Survived    float64 `json:"survived"`
}

type formattedPair struct {
	NotSurvived string `json:"not_survived"`
	Survived    string `json:"survived"`
}

type predictResponse struct {
	Model         string             `json:"model"`
	ModelName     string             `json:"model_name"`
	Label         int                `json:"label"`
	Survived      bool               `json:"survived"`
	Verdict       string             `json:"verdict"`
	Probabilities probabilityPair    `json:"probabilities"`
	Formatted     formattedPair      `json:"formatted"`
	Passenger     ml.PassengerRecord `json:"passenger"`
	Cached        bool               `json:"cached"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newPredictResponse(tag language.Tag, pred ml.Prediction) predictResponse {
	p := message.NewPrinter(tag)
	view := newResultView(p, pred)
	return predictResponse{
		Model:     pred.Result.Model.Slug(),
		ModelName: pred.Result.Model.String(),
		Label:     pred.Result.Label,
		Survived:  pred.Result.Survived(),
		Verdict:   view.Verdict,
		Probabilities: probabilityPair{
			NotSurvived: pred.Result.DeathProbability(),
			Survived:    pred.Result.SurvivalProbability(),
		},
		Formatted: formattedPair{
			NotSurvived: view.DeathPct,
			Survived:    view.SurvivalPct,
		},
		Passenger: pred.Passenger,
		Cached:    pred.Cached,
	}
}

// servePredictRequest handles one decoded JSON request for both the HTTP
// and websocket endpoints.
func (h *handlers) servePredictRequest(req predictRequest) (predictResponse, int, error) {
	kind, err := ml.ParseModelKind(req.Model)
	if err != nil {
		h.deps.Metrics.RecordPredictionError(errorReason(err))
		return predictResponse{}, statusFor(err), err
	}
	pred, err := h.predict(kind, req.Passenger)
	if err != nil {
		return predictResponse{}, statusFor(err), err
	}
	return newPredictResponse(matchLanguage(req.Lang, h.deps.Language), pred), http.StatusOK, nil
}

func (h *handlers) handlePredictJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: "read request body: " + err.Error()})
		return
	}
	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	resp, status, err := h.servePredictRequest(req)
	if err != nil {
		if status == http.StatusInternalServerError {
			h.deps.Logger.Error("api prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
			writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
			return
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
