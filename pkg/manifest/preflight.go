package manifest

import (
	coreerrors "github.com/aiproto/aiproto/pkg/errors"
	"github.com/aiproto/aiproto/pkg/request"
)

// PreflightCapabilities implements §4.3 step 1: reject a request the
// manifest cannot serve before any network call is made. Missing
// capability errors are invalid_request, non-retryable, but fallbackable
// (a different model may support it).
func PreflightCapabilities(m *Manifest, req *request.Unified) error {
	if req.Stream && !m.HasCapability("streaming") {
		return missingCapability("streaming")
	}
	if len(req.Tools) > 0 && !m.HasCapability("tools") {
		return missingCapability("tools")
	}
	if req.HasImages() && !(m.HasCapability("multimodal") || m.HasCapability("vision")) {
		return missingCapability("multimodal or vision")
	}
	if req.HasAudio() && !(m.HasCapability("multimodal") || m.HasCapability("audio")) {
		return missingCapability("multimodal or audio")
	}
	return nil
}

func missingCapability(name string) error {
	err := coreerrors.New(coreerrors.CodeInvalidRequest, "manifest does not declare required capability: "+name)
	err.Fallbackable = true
	err.Retryable = false
	return err
}
