// Package mockserver реализует локальную замену бэкенда ретуши для разработки и тестов.
package mockserver

import (
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	imgproc "retouch-bot/internal/infrastructure/imaging"
)

const maxFormMemory = 32 << 20

// SegmentForm поля последнего запроса сегментации
type SegmentForm struct {
	Filename        string
	ContentType     string
	Image           []byte
	Points          string
	Labels          string
	MultimaskOutput string
}

// Server детерминированный бэкенд, маска строится кругами вокруг точек объекта
type Server struct {
	mu          sync.Mutex
	score       float64
	radius      int
	failStatus  int
	failBody    string
	lastSegment *SegmentForm
	segments    int

	luts      map[string]float64
	processor *imgproc.Processor
	log       *zap.Logger
}

// New создаёт мок-бэкенд
func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		score:  0.95,
		radius: 12,
		luts: map[string]float64{
			"cinematic": 1.1,
			"vibrant":   1.2,
			"matte":     0.9,
		},
		processor: imgproc.NewProcessor(),
		log:       log.Named("mockbackend"),
	}
}

// SetScore задаёт уверенность, которую вернёт сегментация
func (s *Server) SetScore(score float64) {
	s.mu.Lock()
	s.score = score
	s.mu.Unlock()
}

// SetRadius задаёт радиус круга вокруг точки в пикселях
func (s *Server) SetRadius(r int) {
	s.mu.Lock()
	s.radius = r
	s.mu.Unlock()
}

// FailWith заставляет все эндпоинты API отвечать status и body. status 0 выключает сбой.
func (s *Server) FailWith(status int, body string) {
	s.mu.Lock()
	s.failStatus, s.failBody = status, body
	s.mu.Unlock()
}

// LastSegment возвращает форму последнего запроса сегментации
func (s *Server) LastSegment() *SegmentForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSegment
}

// SegmentCalls количество принятых запросов сегментации
func (s *Server) SegmentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segments
}

// Router собирает маршруты в том же виде, что и настоящий бэкенд
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.failMiddleware)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/segmentation/segment-from-points", s.handleSegment).Methods(http.MethodPost)
	api.HandleFunc("/retouch/process", s.handleRetouch).Methods(http.MethodPost)
	api.HandleFunc("/retouch/capabilities", s.handleCapabilities).Methods(http.MethodGet)
	api.HandleFunc("/luts/list", s.handleListLUTs).Methods(http.MethodGet)
	api.HandleFunc("/luts/apply", s.handleApplyLUT).Methods(http.MethodPost)
	return r
}

func (s *Server) failMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, body := s.failStatus, s.failBody
		s.mu.Unlock()

		if status != 0 {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "ai-retouch-studio", "status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "device": "cpu"})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models_loaded": true,
		"device":        "cpu",
		"capabilities":  []string{"txt2img", "img2img", "inpaint", "enhance_faces", "upscale"},
	})
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "image is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	form := &SegmentForm{
		Filename:        header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		Image:           data,
		Points:          r.FormValue("points"),
		Labels:          r.FormValue("labels"),
		MultimaskOutput: r.FormValue("multimask_output"),
	}
	s.mu.Lock()
	s.lastSegment = form
	s.segments++
	score, radius := s.score, s.radius
	s.mu.Unlock()

	var points [][2]int
	if err := json.Unmarshal([]byte(orEmptyList(form.Points)), &points); err != nil {
		writeDetail(w, http.StatusInternalServerError, "SAM segmentation failed: "+err.Error())
		return
	}
	var labels []int
	if err := json.Unmarshal([]byte(orEmptyList(form.Labels)), &labels); err != nil {
		writeDetail(w, http.StatusInternalServerError, "SAM segmentation failed: "+err.Error())
		return
	}
	if len(points) == 0 {
		writeDetail(w, http.StatusBadRequest, "No points provided")
		return
	}
	if len(labels) != len(points) {
		labels = make([]int, len(points))
		for i := range labels {
			labels[i] = 1
		}
	}

	img, err := s.processor.Decode(data)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "SAM segmentation failed: "+err.Error())
		return
	}

	mask := renderMask(img.Bounds().Dx(), img.Bounds().Dy(), points, labels, radius)
	encoded, err := s.processor.EncodePNG(mask)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Debug("segment", zap.Int("points", len(points)), zap.Float64("score", score))
	writeJSON(w, http.StatusOK, map[string]any{
		"mask":  base64.StdEncoding.EncodeToString(encoded),
		"score": score,
	})
}

func (s *Server) handleRetouch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	prompt := r.FormValue("prompt")
	if prompt == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "prompt is required")
		return
	}
	operation := r.FormValue("operation")
	if operation == "" {
		operation = "img2img"
	}

	var src image.Image = imaging.New(64, 64, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	if file, _, err := r.FormFile("image"); err == nil {
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if src, err = s.processor.Decode(data); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	out, err := s.processor.EncodePNG(imaging.Grayscale(src))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString(out),
		"meta":         map[string]string{"operation": operation, "prompt": prompt},
	})
}

func (s *Server) handleListLUTs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.luts))
	for _, name := range []string{"cinematic", "vibrant", "matte"} {
		if _, ok := s.luts[name]; ok {
			names = append(names, name)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"luts": names})
}

func (s *Server) handleApplyLUT(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	name := r.FormValue("lut_name")
	if name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "lut_name is required")
		return
	}
	intensity := 1.0
	if raw := r.FormValue("intensity"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "intensity must be a number")
			return
		}
		intensity = v
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "image is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	img, err := s.processor.Decode(data)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	factor, ok := s.luts[name]
	if !ok {
		factor = 1.0
	}
	factor *= math.Max(0, intensity)

	percent := math.Min(math.Max((factor-1)*100, -100), 100)
	out, err := s.processor.EncodePNG(imaging.AdjustSaturation(img, percent))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// renderMask рисует белые круги вокруг точек объекта и вырезает круги точек фона
func renderMask(width, height int, points [][2]int, labels []int, radius int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	for _, pass := range []int{1, 0} {
		value := uint8(0)
		if pass == 1 {
			value = 255
		}
		for i, p := range points {
			if labels[i] != pass {
				continue
			}
			fillDisc(mask, p[0], p[1], radius, value)
		}
	}
	return mask
}

func fillDisc(mask *image.Gray, cx, cy, r int, value uint8) {
	b := mask.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				mask.Pix[y*mask.Stride+x] = value
			}
		}
	}
}

func orEmptyList(raw string) string {
	if raw == "" {
		return "[]"
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
