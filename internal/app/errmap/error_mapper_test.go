package errmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{domainErr.Validationf("name is required"), codes.InvalidArgument},
		{domainErr.ErrForbidden, codes.PermissionDenied},
		{domainErr.ErrAlreadyMember, codes.AlreadyExists},
		{domainErr.ErrAlreadyInLibrary, codes.AlreadyExists},
		{domainErr.ErrTenantNotFound, codes.NotFound},
		{&domainErr.PartialFailureError{Operation: "leave", Failed: "clear_pointer", Cause: errors.New("x")}, codes.Aborted},
		{domainErr.Transient("get_person", errors.New("reset")), codes.Unavailable},
		{errors.New("pq: something odd"), codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(ToStatus(tt.err))
		assert.True(t, ok)
		assert.Equal(t, tt.want, st.Code(), "%v", tt.err)
	}
	assert.NoError(t, ToStatus(nil))

	// unclassified text never leaks
	st, _ := status.FromError(ToStatus(errors.New("pq: password authentication failed")))
	assert.NotContains(t, st.Message(), "password")
}

func TestUserMessage(t *testing.T) {
	kinds := map[domainErr.Kind]error{
		domainErr.KindValidation:       domainErr.ErrInvalidInput,
		domainErr.KindForbidden:        domainErr.ErrForbidden,
		domainErr.KindAlreadyMember:    domainErr.ErrAlreadyMember,
		domainErr.KindAlreadyInLibrary: domainErr.ErrAlreadyInLibrary,
		domainErr.KindNotFound:         domainErr.ErrNotFound,
		domainErr.KindPartialFailure:   &domainErr.PartialFailureError{Cause: errors.New("x")},
		domainErr.KindTransientStore:   domainErr.Transient("op", errors.New("x")),
		domainErr.KindInternal:         errors.New("x"),
	}
	seen := map[string]domainErr.Kind{}
	for kind, err := range kinds {
		msg := UserMessage(err)
		assert.Equal(t, kind, msg.Kind)
		assert.NotEmpty(t, msg.Text)
		assert.Equal(t, kind == domainErr.KindTransientStore, msg.Retry, "retry flag for %s", kind)
		if prev, dup := seen[msg.Text]; dup {
			t.Errorf("%s and %s share a message", prev, kind)
		}
		seen[msg.Text] = kind
	}

	assert.Equal(t, Message{}, UserMessage(nil))
	assert.Equal(t, "name is required", UserMessage(domainErr.Validationf("name is required")).Text)
}
