package models

import "errors"

// GenericFetchMessage is shown when no more specific explanation applies.
const GenericFetchMessage = "Error fetching metadata. Please check the URL and try again."

// UserMessage returns the text to show an end user for err. Internal
// details (wrapped causes, stack traces) are never included.
func UserMessage(err error) string {
	var me *MetadataError
	if errors.As(err, &me) && me.Message != "" {
		return me.Message
	}
	return GenericFetchMessage
}
