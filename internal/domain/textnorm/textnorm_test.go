package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  hello \r\n\r\n world  ": "hello world",
		"你好！\n再会？":                "你好! 再会?",
		"a――b":                     "a——b",
		"Ａ１２":                      "A12",
		"":                         "",
		"tab\tsep":                 "tab sep",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := Normalize(in); got != want {
				t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "“他说：‘好的……’”\r\n  然后——离开。"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Fatalf("normalize not idempotent: %q vs %q", once, twice)
	}
}

func TestComparable(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":   "helloworld",
		"你好，世界。":          "你好世界",
		"  ...  ":         "",
		"Step 2: measure": "step2measure",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := Comparable(in); got != want {
				t.Fatalf("Comparable(%q) = %q, want %q", in, got, want)
			}
		})
	}
}
