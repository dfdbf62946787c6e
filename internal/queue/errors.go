package queue

import "errors"

var errMalformed = errors.New("malformed message")

func isMalformed(err error) bool {
	return errors.Is(err, errMalformed)
}
