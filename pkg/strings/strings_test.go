package strings

import (
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	builder := NewBuilder(32)

	builder.WriteString("hello")
	_ = builder.WriteByte(' ')
	builder.WriteRune('w')
	builder.WriteString("orld")

	result := builder.String()
	if result != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", result)
	}

	if builder.Len() != 11 {
		t.Errorf("expected length 11, got %d", builder.Len())
	}

	builder.Reset()
	if builder.Len() != 0 {
		t.Errorf("expected length 0 after reset, got %d", builder.Len())
	}
}

func TestPooledBuilderIsReset(t *testing.T) {
	builder := GetBuilder(Small)
	builder.WriteString("leftover")
	PutBuilder(builder, Small)

	again := GetBuilder(Small)
	defer PutBuilder(again, Small)
	if again.Len() != 0 {
		t.Errorf("expected pooled builder to be empty, got %q", again.String())
	}
}

func TestConcat(t *testing.T) {
	if got := Concat(); got != "" {
		t.Errorf("expected empty string, got '%s'", got)
	}
	if got := Concat("a"); got != "a" {
		t.Errorf("expected 'a', got '%s'", got)
	}
	if got := Concat("prod", "-", "orders"); got != "prod-orders" {
		t.Errorf("expected 'prod-orders', got '%s'", got)
	}

	long := strings.Repeat("x", 2048)
	if got := Concat(long, "y"); got != long+"y" {
		t.Errorf("large concat mismatch, got length %d", len(got))
	}
}

func TestSprintf(t *testing.T) {
	if got := Sprintf("plain"); got != "plain" {
		t.Errorf("expected 'plain', got '%s'", got)
	}
	if got := Sprintf("%s/%d", "api", 3); got != "api/3" {
		t.Errorf("expected 'api/3', got '%s'", got)
	}
}

func TestJoinPooled(t *testing.T) {
	tests := []struct {
		parts []string
		sep   string
		want  string
	}{
		{nil, "; ", ""},
		{[]string{"one"}, "; ", "one"},
		{[]string{"one", "two", "three"}, "; ", "one; two; three"},
		{[]string{"Prod", "Orders"}, " - ", "Prod - Orders"},
	}

	for _, tt := range tests {
		if got := JoinPooled(tt.parts, tt.sep); got != tt.want {
			t.Errorf("JoinPooled(%v, %q) = %q, want %q", tt.parts, tt.sep, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"orders", "Orders"},
		{"order-items", "Order-Items"},
		{"order_items", "Order_Items"},
		{"API key", "Api Key"},
		{"v2 orders", "V2 Orders"},
		{"ünïcode names", "Ünïcode Names"},
		{"--lead", "--Lead"},
	}

	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartsWithUpper(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"Prod", true},
		{"prod", false},
		{"1prod", false},
		{"Ärger", true},
	}

	for _, tt := range tests {
		if got := StartsWithUpper(tt.in); got != tt.want {
			t.Errorf("StartsWithUpper(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStripNonAlnum(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Api Key", "ApiKey"},
		{"Orders (v2) - Beta!", "Ordersv2Beta"},
		{"a.b_c-d", "abcd"},
		{"Ünïcode-Key", "ncodeKey"},
		{"café ２", "caf"},
	}

	for _, tt := range tests {
		if got := StripNonAlnum(tt.in); got != tt.want {
			t.Errorf("StripNonAlnum(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"displayName", "description", "operations", "path"}
	tests := []struct {
		in   string
		want string
	}{
		{"displayname", "displayName"},
		{"operatons", "operations"},
		{"pth", "path"},
		{"servers", ""},
	}

	for _, tt := range tests {
		if got := Suggest(tt.in, candidates); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := DidYouMean("ordrs", []string{"orders"}); got != ` (did you mean "orders"?)` {
		t.Errorf("DidYouMean = %q", got)
	}
	if got := DidYouMean("x", nil); got != "" {
		t.Errorf("DidYouMean without candidates = %q", got)
	}
}
