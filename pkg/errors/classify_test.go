package errors

import "testing"

func TestClassifyPriority(t *testing.T) {
	tables := ClassificationTables{
		ByErrorStatus: map[string]StandardCode{"insufficient_quota": CodeQuotaExhausted},
		ByHTTPStatus:  map[int]StandardCode{429: CodeOverloaded},
	}

	cases := []struct {
		name       string
		httpStatus int
		providerEC string
		want       StandardCode
	}{
		{"provider code wins over http status table", 429, "insufficient_quota", CodeQuotaExhausted},
		{"manifest http status table wins over standard mapping", 429, "", CodeOverloaded},
		{"standard mapping used when nothing declared", 404, "", CodeNotFound},
		{"blank provider code treated as absent", 404, "   ", CodeNotFound},
		{"5xx catch-all", 503, "", CodeServerError},
		{"unmapped status falls to unknown", 999, "", CodeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tables, tc.httpStatus, tc.providerEC)
			if got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	if got := ClassifyTransportError(true, false); got != CodeCancelled {
		t.Fatalf("cancelled: got %s", got)
	}
	if got := ClassifyTransportError(false, true); got != CodeUnknown {
		t.Fatalf("json parse of 2xx: got %s", got)
	}
	if got := ClassifyTransportError(false, false); got != CodeServerError {
		t.Fatalf("socket error: got %s", got)
	}
}

func TestNonRetryableCodes(t *testing.T) {
	nonRetryable := []StandardCode{
		CodeInvalidRequest, CodeAuthentication, CodePermissionDenied,
		CodeNotFound, CodeRequestTooLarge, CodeCancelled, CodeUnknown,
	}
	for _, c := range nonRetryable {
		if Retryable(c) {
			t.Errorf("%s should not be retryable", c)
		}
	}
	retryable := []StandardCode{CodeRateLimited, CodeQuotaExhausted, CodeServerError, CodeOverloaded, CodeTimeout, CodeConflict}
	for _, c := range retryable {
		if !Retryable(c) {
			t.Errorf("%s should be retryable", c)
		}
	}
}
