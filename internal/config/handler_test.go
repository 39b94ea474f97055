package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateServerConfig(t *testing.T) {
	testCases := []struct {
		name        string
		server      Server
		wantMessage string
	}{
		{
			name: "valid config without sftp",
			server: Server{
				Port:          "3000",
				WebdavEnabled: true,
				SftpEnabled:   false,
				SftpPort:      2222,
			},
		},
		{
			name: "valid config with trimmed port and sftp",
			server: Server{
				Port:          " 3000 ",
				WebdavEnabled: true,
				SftpEnabled:   true,
				SftpPort:      2222,
			},
		},
		{
			name: "missing server port",
			server: Server{
				Port:     "",
				SftpPort: 2222,
			},
			wantMessage: "server.port is required",
		},
		{
			name: "invalid server port format",
			server: Server{
				Port:     "abc",
				SftpPort: 2222,
			},
			wantMessage: "server.port must be an integer between 1 and 65535",
		},
		{
			name: "invalid server port range",
			server: Server{
				Port:     "65536",
				SftpPort: 2222,
			},
			wantMessage: "server.port must be an integer between 1 and 65535",
		},
		{
			name: "invalid sftp port when enabled",
			server: Server{
				Port:        "3000",
				SftpEnabled: true,
				SftpPort:    0,
			},
			wantMessage: "server.sftpPort must be an integer between 1 and 65535 when sftp is enabled",
		},
		{
			name: "sftp port ignored when disabled",
			server: Server{
				Port:        "3000",
				SftpEnabled: false,
				SftpPort:    0,
			},
		},
		{
			name: "sftp port must differ from web port",
			server: Server{
				Port:        "3000",
				SftpEnabled: true,
				SftpPort:    3000,
			},
			wantMessage: "server.sftpPort must be different from server.port",
		},
		{
			name: "web dir must not escape",
			server: Server{
				Port:   "3000",
				WebDir: "../dist",
			},
			wantMessage: "server.webDir must not contain '..'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateServerConfig(tc.server)
			if tc.wantMessage == "" {
				if err != nil {
					t.Fatalf("expected no error, got %+v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("expected error %q, got nil", tc.wantMessage)
			}
			if err.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, err.Code)
			}
			if err.Message != tc.wantMessage {
				t.Fatalf("expected message %q, got %q", tc.wantMessage, err.Message)
			}
		})
	}
}

func TestUpdateConfig_SavesServerSection(t *testing.T) {
	originalConf := Conf
	defer func() { Conf = originalConf }()

	Conf.Datasource = Datasource{Driver: "sqlite", URL: "data/original.db"}

	saved := 0
	h := &Handler{save: func() error {
		saved++
		return nil
	}}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	body := `{"server":{"port":" 4000 ","webdavEnabled":false,"sftpEnabled":true,"sftpPort":2022}}`
	req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if saved != 1 {
		t.Fatalf("expected config to be saved once, saved %d times", saved)
	}
	if Conf.Server.Port != "4000" || Conf.Server.SftpPort != 2022 || Conf.Server.WebdavEnabled {
		t.Fatalf("unexpected server config: %+v", Conf.Server)
	}
	if Conf.Datasource.URL != "data/original.db" {
		t.Fatalf("datasource must not change, got %q", Conf.Datasource.URL)
	}
}

func TestUpdateConfig_SaveFailure(t *testing.T) {
	originalConf := Conf
	defer func() { Conf = originalConf }()

	h := &Handler{save: func() error { return errors.New("disk full") }}
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(`{"server":{"port":"3000"}}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGetConfig_HidesSecrets(t *testing.T) {
	originalConf := Conf
	defer func() { Conf = originalConf }()

	Conf.Server.Port = "3000"
	Conf.Export.SecretKey = "minio-secret"
	Conf.Search.APIKey = "meili-key"

	mux := http.NewServeMux()
	NewHandler().RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "minio-secret") || strings.Contains(rec.Body.String(), "meili-key") {
		t.Fatalf("response leaked secrets: %s", rec.Body.String())
	}

	var resp PublicConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Server.Port != "3000" {
		t.Fatalf("expected port 3000, got %q", resp.Server.Port)
	}
}
