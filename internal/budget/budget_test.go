package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
		{"인공지능", 4},       // one per Hangul syllable
		{"AI 인공지능 개론", 7}, // 4 ascii (incl. spaces) → 1, plus 6 Hangul
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"),
		schema.UserMessage("hello world"),
	}
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7
	if got := EstimateMessages(msgs); got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_Check(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{schema.UserMessage(strings.Repeat("가", 100))}

	r := Check(msgs, 50)
	if !r.Over() {
		t.Errorf("want over budget, got %+v", r)
	}
	if r.Limit != 50 {
		t.Errorf("limit: want 50, got %d", r.Limit)
	}

	r = Check(msgs, 0)
	if r.Over() || r.Limit != DefaultMaxContextTokens {
		t.Errorf("want default limit and within budget, got %+v", r)
	}
}
