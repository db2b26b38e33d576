package main

import (
	"testing"
)

func TestInspectCommand(t *testing.T) {
	tests := []struct {
		name        string
		json        bool
		charmap     string
		width       int
		wantErr     bool
		wantContain []string
	}{
		{
			name: "default dump",
			wantContain: []string{
				"18 bytes in use window",
				"00000001  73 61 6e 64 62 6f 78 21  aa aa",
				"|sandbox!¬¬",
			},
		},
		{
			name:        "latin1 glyphs",
			charmap:     "latin1",
			wantContain: []string{"|sandbox!ªª"},
		},
		{
			name:        "narrow rows",
			width:       4,
			wantContain: []string{"00000001  73 61  6e 64 |sand|", "00000005  62 6f  78 21 |box!|"},
		},
		{
			name:        "json",
			json:        true,
			wantContain: []string{`"base": 1`, `"len": 18`, `"hex": "73616e64626f7821aaaa`},
		},
		{
			name:    "unknown charmap",
			charmap: "ebcdic",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			jsonOut = tt.json
			if tt.charmap != "" {
				inspectCharmap = tt.charmap
			}
			if tt.width != 0 {
				inspectWidth = tt.width
			}

			output, err := captureOutput(t, func() error {
				return runInspect([]string{"testdata/reference.yaml"})
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("runInspect() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
			}
			if tt.json {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}
