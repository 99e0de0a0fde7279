package billing

import "testing"

func TestVerifyWebhookAccessToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
		want     bool
	}{
		{name: "matching token", header: "s3cr3t", expected: "s3cr3t", want: true},
		{name: "surrounding whitespace", header: " s3cr3t ", expected: "s3cr3t\n", want: true},
		{name: "wrong token", header: "guess", expected: "s3cr3t", want: false},
		{name: "prefix only", header: "s3cr", expected: "s3cr3t", want: false},
		{name: "missing header", header: "", expected: "s3cr3t", want: false},
		{name: "check disabled", header: "", expected: "", want: true},
		{name: "check disabled ignores header", header: "anything", expected: "  ", want: true},
	}

	for _, tt := range tests {
		if got := VerifyWebhookAccessToken(tt.header, tt.expected); got != tt.want {
			t.Fatalf("%s: VerifyWebhookAccessToken(%q, %q) = %v, want %v", tt.name, tt.header, tt.expected, got, tt.want)
		}
	}
}
