package storage

import (
	"testing"
)

func TestSplitS3Path(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://dumps/enwiki/latest.xml.bz2", "dumps", "enwiki/latest.xml.bz2", true},
		{"s3://dumps", "", "", false},
		{"s3:///key", "", "", false},
		{"/var/data/dump.xml.bz2", "", "", false},
		{"dump.xml", "", "", false},
	}

	for _, tt := range tests {
		bucket, key, ok := splitS3Path(tt.path)
		if bucket != tt.bucket || key != tt.key || ok != tt.ok {
			t.Errorf("splitS3Path(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.path, bucket, key, ok, tt.bucket, tt.key, tt.ok)
		}
	}
}
