package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPresentationURL(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{
			name: "portal link with access code",
			body: "Hi team,\n\nPlease process https://portal.mypromooffice.com/presentations/500183020?accessCode=b07e67d01cbd4ca2ba71934d128e1a44 today.\n\nThanks",
			want: "https://portal.mypromooffice.com/presentations/500183020?accessCode=b07e67d01cbd4ca2ba71934d128e1a44",
			ok:   true,
		},
		{
			name: "portal project link",
			body: "See https://portal.mypromooffice.com/projects/500187876/presentations/500183020/products",
			want: "https://portal.mypromooffice.com/projects/500187876/presentations/500183020/products",
			ok:   true,
		},
		{
			name: "viewpresentation link with trailing period",
			body: "New presentation: https://www.viewpresentation.com/66907679185.",
			want: "https://www.viewpresentation.com/66907679185",
			ok:   true,
		},
		{
			name: "sageconnect link",
			body: "https://sageconnect.sage.com/Presentation/AbC123xy",
			want: "https://sageconnect.sage.com/Presentation/AbC123xy",
			ok:   true,
		},
		{
			name: "no link",
			body: "Just checking in about the order status.",
			ok:   false,
		},
		{
			name: "unrelated link",
			body: "Check https://example.com/presentations/5 instead",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPresentationURL(tt.body)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
