package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Blog content errors
var (
	ErrCommentPostMismatch = errors.New("child comment and parent comment must belong to the same post")
	ErrCommentParentCycle  = errors.New("comment cannot be its own ancestor")
	ErrRenderFailed        = errors.New("markdown rendering failed")
	ErrObjectStorage       = errors.New("object storage upload failed")
)

// NewCommentPostMismatchError reports a reply whose post differs from its parent's post.
func NewCommentPostMismatchError(postID, parentPostID uint) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrCommentPostMismatch,
		Details:    fmt.Sprintf("post %d does not match parent comment post %d", postID, parentPostID),
		Field:      "parent",
	}
}

func NewCommentParentCycleError(commentID uint) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrCommentParentCycle,
		Details:    fmt.Sprintf("comment %d would become a reply to itself", commentID),
		Field:      "parent",
	}
}

func NewRenderError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrRenderFailed,
		Cause:      cause,
	}
}

func NewObjectStorageError(key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrObjectStorage,
		Details:    fmt.Sprintf("upload of %s failed", key),
		Cause:      cause,
		Field:      "object_storage",
	}
}

func IsCommentPostMismatch(err error) bool {
	return errors.Is(err, ErrCommentPostMismatch)
}
