package entity

import "fmt"

// RetouchRequest запрос генеративной ретуши
type RetouchRequest struct {
	Prompt        string
	Operation     string // img2img, inpaint, ...
	Image         []byte
	Mask          []byte // опционально, для inpaint
	Strength      float64
	GuidanceScale float64
	Steps         int
	Seed          *int64
}

// RetouchResult ответ ретуши
type RetouchResult struct {
	ImageBase64 string         `json:"image_base64"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Capabilities возможности бэкенда ретуши
type Capabilities struct {
	ModelsLoaded bool     `json:"models_loaded"`
	Device       string   `json:"device"`
	Capabilities []string `json:"capabilities"`
}

// BackendHealth ответ проверки здоровья бэкенда
type BackendHealth struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

// RetouchLabel имя слоя для результата ретуши
func RetouchLabel(prompt string) string {
	return fmt.Sprintf("AI Edit: %s", prompt)
}

// LUTLabel имя слоя для результата применения LUT
func LUTLabel(name string) string {
	return fmt.Sprintf("LUT: %s", name)
}
