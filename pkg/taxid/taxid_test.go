package taxid

import "testing"

func TestValidCPF(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want bool
	}{
		{"formatted valid", "529.982.247-25", true},
		{"digits only valid", "52998224725", true},
		{"bad check digit", "529.982.247-26", false},
		{"all same digits", "111.111.111-11", false},
		{"too short", "1234567890", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidCPF(tc.doc); got != tc.want {
				t.Fatalf("ValidCPF(%q) = %v, want %v", tc.doc, got, tc.want)
			}
		})
	}
}

func TestValidCNPJ(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want bool
	}{
		{"formatted valid", "11.222.333/0001-81", true},
		{"digits only valid", "11222333000181", true},
		{"bad check digit", "11.222.333/0001-80", false},
		{"all same digits", "11.111.111/1111-11", false},
		{"cpf length", "52998224725", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidCNPJ(tc.doc); got != tc.want {
				t.Fatalf("ValidCNPJ(%q) = %v, want %v", tc.doc, got, tc.want)
			}
		})
	}
}

func TestDetectAndValid(t *testing.T) {
	if got := Detect("529.982.247-25"); got != KindCPF {
		t.Fatalf("expected cpf, got %s", got)
	}
	if got := Detect("11.222.333/0001-81"); got != KindCNPJ {
		t.Fatalf("expected cnpj, got %s", got)
	}
	if got := Detect("123"); got != KindUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if !Valid("52998224725") || !Valid("11222333000181") {
		t.Fatalf("expected valid documents")
	}
	if Valid("123") {
		t.Fatalf("expected invalid document")
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("529.982.247-25"); got != "52998224725" {
		t.Fatalf("unexpected normalization %q", got)
	}
}
