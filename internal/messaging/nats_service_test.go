package messaging

import (
	"testing"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
)

func TestIntentSubject(t *testing.T) {
	tests := []struct {
		category intent.Category
		want     string
	}{
		{intent.CategoryScreenshot, "voxdesk.intent.screenshot"},
		{intent.CategoryWebSearch, "voxdesk.intent.web_search"},
		{intent.CategorySystemControl, "voxdesk.intent.system_control"},
	}

	for _, tt := range tests {
		if got := IntentSubject(tt.category); got != tt.want {
			t.Errorf("IntentSubject(%s) = %s, want %s", tt.category, got, tt.want)
		}
	}
}

func TestNewNATSServiceDefaultURL(t *testing.T) {
	ns := NewNATSService("")
	if ns.url == "" {
		t.Error("empty URL should fall back to the default")
	}
	if ns.IsConnected() {
		t.Error("service should not report connected before Connect")
	}
}
