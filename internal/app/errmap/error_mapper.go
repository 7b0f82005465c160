// internal/app/errmap/error_mapper.go
package errmap

import (
	stdErrors "errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

// Why app/errmap?
// Not domain: the domain does not know about gRPC or status codes.
// Not transport: transport holds no business rules.
// The application layer translates domain outcomes into transport-safe ones.

// Message is what a caller shows the user. Retry is set only for transient
// store errors, the single kind offered a "try again" affordance.
type Message struct {
	Kind  domainErr.Kind
	Text  string
	Retry bool
}

var messages = map[domainErr.Kind]Message{
	domainErr.KindValidation:       {Kind: domainErr.KindValidation, Text: "Some of the details you entered are not valid. Please correct them."},
	domainErr.KindForbidden:        {Kind: domainErr.KindForbidden, Text: "You do not have permission to do that."},
	domainErr.KindAlreadyMember:    {Kind: domainErr.KindAlreadyMember, Text: "You are already a member of this club."},
	domainErr.KindAlreadyInLibrary: {Kind: domainErr.KindAlreadyInLibrary, Text: "This book is already in the library."},
	domainErr.KindNotFound:         {Kind: domainErr.KindNotFound, Text: "We could not find what you were looking for."},
	domainErr.KindPartialFailure:   {Kind: domainErr.KindPartialFailure, Text: "Your change was only partly saved. Run it again to finish."},
	domainErr.KindTransientStore:   {Kind: domainErr.KindTransientStore, Text: "The service is temporarily unavailable.", Retry: true},
	domainErr.KindInternal:         {Kind: domainErr.KindInternal, Text: "Something went wrong."},
}

// UserMessage returns the display message for err. Validation errors carry
// their field-level detail through.
func UserMessage(err error) Message {
	kind := domainErr.KindOf(err)
	if kind == domainErr.KindNone {
		return Message{}
	}
	msg := messages[kind]
	if kind == domainErr.KindValidation && !stdErrors.Is(err, domainErr.ErrInvalidInput) {
		msg.Text = strings.TrimSuffix(err.Error(), ": "+string(domainErr.KindValidation))
	}
	return msg
}

// ToStatus maps a domain error to a gRPC status error. Anything unclassified
// becomes Internal without leaking its text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	switch domainErr.KindOf(err) {
	case domainErr.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case domainErr.KindForbidden:
		return status.Error(codes.PermissionDenied, "forbidden")
	case domainErr.KindAlreadyMember:
		return status.Error(codes.AlreadyExists, "already a member")
	case domainErr.KindAlreadyInLibrary:
		return status.Error(codes.AlreadyExists, "already in library")
	case domainErr.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domainErr.KindPartialFailure:
		// Aborted: the client should retry the whole operation, which resumes.
		return status.Error(codes.Aborted, err.Error())
	case domainErr.KindTransientStore:
		return status.Error(codes.Unavailable, "temporarily unavailable")
	}
	return status.Error(codes.Internal, "internal error")
}
