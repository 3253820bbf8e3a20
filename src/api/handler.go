package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vigneswarPR/iot-anomaly-detection/src/pipeline"
	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
	"github.com/vigneswarPR/iot-anomaly-detection/src/utils"
)

// Handler wires the ingestion and query boundaries to the pipeline.
type Handler struct {
	pipeline *pipeline.Pipeline
}

func NewHandler(p *pipeline.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// SensorDataRequest is the ingestion payload. All fields are required; a
// missing one rejects the reading before any window is touched.
type SensorDataRequest struct {
	SensorID    string   `json:"sensor_id" binding:"required"`
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required"`
	Pressure    *float64 `json:"pressure" binding:"required"`
}

// SensorDataResponse mirrors the pipeline result for one reading.
type SensorDataResponse struct {
	Status       types.Outcome `json:"status"`
	SensorID     string        `json:"sensor_id"`
	Timestamp    int64         `json:"timestamp"`
	AnomalyScore *float64      `json:"anomaly_score,omitempty"`
	Position     *uint64       `json:"position,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// AnomalyResponse is one committed ledger record rendered for the query
// boundary: raw epoch plus human-readable datetime, and a severity band of the
// record's data_value against the whole ledger population.
type AnomalyResponse struct {
	Position    uint64 `json:"position"`
	Timestamp   int64  `json:"timestamp"`
	Datetime    string `json:"datetime"`
	SensorID    string `json:"sensor_id"`
	DataValue   int64  `json:"data_value"`
	AnomalyType string `json:"anomaly_type"`
	Explanation string `json:"explanation"`
	Severity    string `json:"severity"`
}

// Router builds the gin engine with all routes attached.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.POST("/sensor_data", h.ReceiveSensorData)
	r.GET("/anomalies", h.GetAnomalies)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (h *Handler) ReceiveSensorData(c *gin.Context) {
	var req SensorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing required data fields, expected: sensor_id, temperature, humidity, pressure",
			"details": err.Error(),
		})
		return
	}

	result := h.pipeline.Process(c.Request.Context(), types.Reading{
		SensorID:    req.SensorID,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		Pressure:    *req.Pressure,
	})

	resp := SensorDataResponse{
		Status:       result.Outcome,
		SensorID:     result.SensorID,
		Timestamp:    result.Timestamp,
		AnomalyScore: result.Score,
		Position:     result.Position,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}

	c.JSON(statusFor(result), resp)
}

func (h *Handler) GetAnomalies(c *gin.Context) {
	records, err := h.pipeline.ListAnomalies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch anomalies", "details": err.Error()})
		return
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = float64(r.DataValue)
	}
	avg := utils.Average(values)
	std := utils.StandardDeviation(values)

	out := make([]AnomalyResponse, 0, len(records))
	for i, r := range records {
		out = append(out, AnomalyResponse{
			Position:    r.Position,
			Timestamp:   r.Timestamp,
			Datetime:    time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339),
			SensorID:    r.SensorID,
			DataValue:   r.DataValue,
			AnomalyType: r.AnomalyType,
			Explanation: r.Explanation,
			Severity:    utils.ComputeAnomalyLevel(values[i], std, avg).String(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func statusFor(result pipeline.Result) int {
	switch result.Outcome {
	case types.OutcomeAnomalyLogFailed:
		return http.StatusBadGateway
	case types.OutcomeRejected:
		if errors.Is(result.Err, pipeline.ErrInvalidReading) {
			return http.StatusBadRequest
		}
		// Dimension mismatch or scoring failure: internal, isolated to the request.
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
