package server

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatusResponse is the diagnostics snapshot for operators.
type SystemStatusResponse struct {
	UptimeSeconds   float64 `json:"uptime_seconds"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemPercent      float64 `json:"mem_percent"`
	Variants        int     `json:"variants"`
	Eliminated      int     `json:"eliminated"`
	TrackedVariants int     `json:"tracked_variants"`
	LastCalibration string  `json:"last_calibration,omitempty"`
	ModelTrainedAt  string  `json:"model_trained_at,omitempty"`
	ModelSamples    int     `json:"model_samples,omitempty"`
	ScheduledJobs   int     `json:"scheduled_jobs"`
	StreamClients   int     `json:"stream_clients"`
}

// handleSystemStatus returns host and engine diagnostics.
// GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatusResponse{
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
		Variants:        s.registry.Len(),
		Eliminated:      len(s.elims.List()),
		TrackedVariants: len(s.store.Variants()),
		StreamClients:   s.signals.ClientCount(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resp.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemPercent = vm.UsedPercent
	}

	if last := s.calibrator.LastRun(); !last.IsZero() {
		resp.LastCalibration = last.Format(time.RFC3339)
	}
	if m := s.trainer.Current(); m != nil {
		resp.ModelTrainedAt = m.TrainedAt.Format(time.RFC3339)
		resp.ModelSamples = m.Samples
	}
	if s.scheduler != nil {
		resp.ScheduledJobs = s.scheduler.JobCount()
	}

	s.writeJSON(w, resp)
}
