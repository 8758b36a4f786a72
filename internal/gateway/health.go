package gateway

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/go-resty/resty/v2"
)

const healthTimeout = 3 * time.Second

type ServiceHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Services  []ServiceHealth `json:"services"`
	Timestamp time.Time       `json:"timestamp"`
}

// HealthChecker опрашивает /health всех сервисов параллельно и сводит
// ответы: любой нездоровый сервис переводит систему в degraded.
type HealthChecker struct {
	http    *resty.Client
	targets map[string]string
}

func NewHealthChecker(targets map[string]string) *HealthChecker {
	return &HealthChecker{
		http:    resty.New().SetTimeout(healthTimeout),
		targets: targets,
	}
}

func (h *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make([]ServiceHealth, 0, len(h.targets)+1)
		results = append(results, ServiceHealth{Name: "gateway", Status: "healthy"})

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)

		for name, url := range h.targets {
			wg.Add(1)

			go func(name, url string) {
				defer wg.Done()

				sh := h.check(name, url)

				mu.Lock()
				results = append(results, sh)
				mu.Unlock()
			}(name, url)
		}

		wg.Wait()

		sort.Slice(results, func(i, j int) bool {
			return results[i].Name < results[j].Name
		})

		allHealthy := true
		for _, sh := range results {
			if sh.Status != "healthy" {
				allHealthy = false
				break
			}
		}

		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		render.Status(r, code)
		render.JSON(w, r, healthResponse{
			Status:    status,
			Services:  results,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (h *HealthChecker) check(name, url string) ServiceHealth {
	var body struct {
		Status string `json:"status"`
	}

	res, err := h.http.R().SetResult(&body).Get(url)
	if err != nil {
		return ServiceHealth{Name: name, Status: "unhealthy", Error: err.Error()}
	}
	if res.IsError() {
		return ServiceHealth{Name: name, Status: "unhealthy", Error: res.Status()}
	}

	status := body.Status
	if status == "" {
		status = "healthy"
	}

	return ServiceHealth{Name: name, Status: status}
}
