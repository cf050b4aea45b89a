package mets

import "testing"

func TestURLEncode(t *testing.T) {
	var tests = []struct {
		in, out string
	}{
		{"objects/file.txt", "objects/file.txt"},
		{"objects/has space.txt", "objects/has+space.txt"},
		{"objects/file[1].txt", "objects/file%5B1%5D.txt"},
		{"objects/30\\ CFLQ.tif", "objects/30%5C+CFLQ.tif"},
		{"objects/ünïcode.pdf", "objects/%C3%BCn%C3%AFcode.pdf"},
		{"http://www.example.com/a b/c.pdf", "http://www.example.com/a+b/c.pdf"},
		{"http://www.example.com/x.php?q=a b#frag ment", "http://www.example.com/x.php?q%3Da+b#frag+ment"},
	}
	for _, test := range tests {
		encoded, err := URLEncode(test.in)
		if err != nil {
			t.Fatalf("cannot encode '%s': %v", test.in, err)
		}
		if encoded != test.out {
			t.Errorf("encode '%s': expected '%s', got '%s'", test.in, test.out, encoded)
		}
		decoded, err := URLDecode(encoded)
		if err != nil {
			t.Fatalf("cannot decode '%s': %v", encoded, err)
		}
		if decoded != test.in {
			t.Errorf("round trip of '%s' returned '%s'", test.in, decoded)
		}
	}
}

func TestURLEncodeInvalid(t *testing.T) {
	for _, in := range []string{
		"http://foo[bar.com/hello[1].pdf",
		"http://foo]bar.com/hello.pdf",
	} {
		if _, err := URLEncode(in); err == nil {
			t.Errorf("expected error for '%s'", in)
		}
	}
}

func TestURLDecodeLenient(t *testing.T) {
	decoded, err := URLDecode("objects/50%25+off%zz.txt")
	if err != nil {
		t.Fatal(err)
	}
	if decoded != "objects/50% off%zz.txt" {
		t.Errorf("unexpected decoding '%s'", decoded)
	}
}
