package storage

import "testing"

func TestObjectURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  MinIOConfig
		want string
	}{
		{
			name: "plain endpoint",
			cfg:  MinIOConfig{Endpoint: "localhost:9000", Bucket: "avatars"},
			want: "http://localhost:9000/avatars/u1.png",
		},
		{
			name: "ssl endpoint",
			cfg:  MinIOConfig{Endpoint: "s3.example.com", Bucket: "avatars", UseSSL: true},
			want: "https://s3.example.com/avatars/u1.png",
		},
		{
			name: "public url override",
			cfg:  MinIOConfig{Endpoint: "minio:9000", Bucket: "avatars", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/avatars/u1.png",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ObjectURL(tc.cfg, "u1.png"); got != tc.want {
				t.Fatalf("ObjectURL = %q, want %q", got, tc.want)
			}
		})
	}
}
