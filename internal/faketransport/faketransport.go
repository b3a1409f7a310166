// Package faketransport provides a hand-written fake of transport.Issuer
// for unit tests that need to exercise pkg/client without touching the
// network. It follows the same ctrl/recorder shape mockgen would generate,
// authored directly rather than run through the generator.
package faketransport

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/aiproto/aiproto/pkg/transport"
)

// MockIssuer is a fake of transport.Issuer.
type MockIssuer struct {
	ctrl     *gomock.Controller
	recorder *MockIssuerMockRecorder
}

// MockIssuerMockRecorder records expected calls on a MockIssuer.
type MockIssuerMockRecorder struct {
	mock *MockIssuer
}

// NewMockIssuer builds a MockIssuer bound to ctrl's expectation bookkeeping.
func NewMockIssuer(ctrl *gomock.Controller) *MockIssuer {
	m := &MockIssuer{ctrl: ctrl}
	m.recorder = &MockIssuerMockRecorder{mock: m}
	return m
}

// EXPECT returns the recorder used to set up call expectations.
func (m *MockIssuer) EXPECT() *MockIssuerMockRecorder {
	return m.recorder
}

// Issue implements transport.Issuer.
func (m *MockIssuer) Issue(ctx context.Context, req transport.Request) (*transport.Result, error) {
	ret := m.ctrl.Call(m, "Issue", ctx, req)
	result, _ := ret[0].(*transport.Result)
	err, _ := ret[1].(error)
	return result, err
}

// Issue records an expectation that Issue will be called with the given
// (possibly matcher-wrapped) arguments.
func (mr *MockIssuerMockRecorder) Issue(ctx, req interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Issue", reflect.TypeOf((*MockIssuer)(nil).Issue), ctx, req)
}

var _ transport.Issuer = (*MockIssuer)(nil)
