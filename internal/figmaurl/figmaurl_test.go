package figmaurl

import "testing"

func TestFileKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "design url",
			url:  "https://www.figma.com/design/rHxTpbi2gpbZ4dmVlyeY2S/Object-Diagrams?node-id=14494-411",
			want: "rHxTpbi2gpbZ4dmVlyeY2S",
		},
		{
			name: "legacy file url",
			url:  "https://www.figma.com/file/aBc123/My-File?node-id=1-2",
			want: "aBc123",
		},
		{
			name: "proto url",
			url:  "https://www.figma.com/proto/Zz9Yy8/Flow?node-id=3-4",
			want: "Zz9Yy8",
		},
		{
			name:    "not a figma url",
			url:     "https://example.com/file/abc",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := FileKey(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FileKey: %v", err)
			}
			if got != tc.want {
				t.Fatalf("FileKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNodeID(t *testing.T) {
	t.Parallel()

	got, err := NodeID("https://www.figma.com/design/abc/Diagrams?node-id=14494-411&t=xyz")
	if err != nil {
		t.Fatalf("NodeID: %v", err)
	}
	if got != "14494-411" {
		t.Fatalf("NodeID = %q, want 14494-411", got)
	}

	// Some share links use colon-separated ids; normalise to hyphens.
	got, err = NodeID("https://www.figma.com/file/abc/X?node-id=101:202")
	if err != nil {
		t.Fatalf("NodeID: %v", err)
	}
	if got != "101-202" {
		t.Fatalf("NodeID = %q, want 101-202", got)
	}

	if _, err := NodeID("https://www.figma.com/file/abc/X"); err == nil {
		t.Fatal("expected error for url without node-id")
	}
}

func TestCanonicalNodeID(t *testing.T) {
	t.Parallel()

	if got := CanonicalNodeID("14494-411"); got != "14494:411" {
		t.Fatalf("CanonicalNodeID = %q, want 14494:411", got)
	}
}
