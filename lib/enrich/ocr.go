package enrich

import (
	"context"
	"strings"

	"github.com/carlmjohnson/requests"
)

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Source visionImageSource `json:"source"`
}

type visionImageSource struct {
	ImageURI string `json:"imageUri"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
	} `json:"responses"`
}

// extractImageText runs one TEXT_DETECTION call against the vision API.
// Failure returns an empty string; the notice is still summarized without
// the image text.
func (e *Enricher) extractImageText(ctx context.Context, imageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body := visionRequest{Requests: []visionAnnotateRequest{{
		Image:    visionImage{Source: visionImageSource{ImageURI: imageURL}},
		Features: []visionFeature{{Type: "TEXT_DETECTION"}},
	}}}

	var resp visionResponse
	err := requests.URL(e.cfg.Vision.Endpoint).
		Param("key", e.cfg.Vision.APIKey).
		Transport(e.transport).
		BodyJSON(&body).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		e.log.Sugar().Warnw("OCR failed", "image", imageURL, "err", err)
		return ""
	}

	if len(resp.Responses) == 0 || len(resp.Responses[0].TextAnnotations) == 0 {
		return ""
	}
	// The first annotation is the full recognized text block.
	return strings.TrimSpace(resp.Responses[0].TextAnnotations[0].Description)
}
