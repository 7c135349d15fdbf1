package errors

// Kind classifies a business rule failure.
type Kind int

const (
	KindAccessDenied Kind = iota + 1
	KindNotFound
	KindAlreadyExists
	KindInvalidTaskState
	KindValidation
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindAccessDenied:
		return "access denied"
	case KindNotFound:
		return "resource not found"
	case KindAlreadyExists:
		return "resource already exists"
	case KindInvalidTaskState:
		return "invalid task state"
	case KindValidation:
		return "invalid argument"
	case KindUnauthenticated:
		return "authentication required"
	default:
		return "unknown error"
	}
}

// DomainError is a business rule failure carrying a human readable reason.
type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is reports whether target is the bare sentinel for e's kind, so that
// errors.Is(err, ErrAccessDenied) matches every access denied error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels
var (
	ErrAccessDenied     = &DomainError{Kind: KindAccessDenied}
	ErrResourceNotFound = &DomainError{Kind: KindNotFound}
	ErrAlreadyExists    = &DomainError{Kind: KindAlreadyExists}
	ErrInvalidTaskState = &DomainError{Kind: KindInvalidTaskState}
	ErrValidation       = &DomainError{Kind: KindValidation}
	ErrUnauthenticated  = &DomainError{Kind: KindUnauthenticated}
)

func AccessDenied(message string) *DomainError {
	return &DomainError{Kind: KindAccessDenied, Message: message}
}

func NotFound(message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: message}
}

func AlreadyExists(message string) *DomainError {
	return &DomainError{Kind: KindAlreadyExists, Message: message}
}

func InvalidTaskState(message string) *DomainError {
	return &DomainError{Kind: KindInvalidTaskState, Message: message}
}

func Validation(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

func Unauthenticated(message string) *DomainError {
	return &DomainError{Kind: KindUnauthenticated, Message: message}
}

// KindOf returns the kind of the first DomainError in err's chain, or 0.
func KindOf(err error) Kind {
	for err != nil {
		if de, ok := err.(*DomainError); ok {
			return de.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
