/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"testing"
)

// fakeStore avoids touching the real OS keyring in tests.
type fakeStore struct{ vals map[string]string }

func (f *fakeStore) Get(service, key string) (string, error) {
	v, ok := f.vals[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeStore) Set(service, key, value string) error {
	f.vals[service+"/"+key] = value
	return nil
}
func (f *fakeStore) Delete(service, key string) error {
	delete(f.vals, service+"/"+key)
	return nil
}

func withFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	old := secretStore
	fs := &fakeStore{vals: map[string]string{}}
	secretStore = fs
	t.Cleanup(func() { secretStore = old })
	return fs
}

func TestEnvOverridesBackendDSN(t *testing.T) {
	withFakeStore(t)
	old := os.Getenv(EnvBackendDSN)
	_ = os.Setenv(EnvBackendDSN, "postgres://fflow@example.test:5432/scripts")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendDSN, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.DSN, "postgres://fflow@example.test:5432/scripts"; got != want {
		t.Fatalf("Backend.DSN = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	withFakeStore(t)
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestEnvOverridesDefaultTarget(t *testing.T) {
	withFakeStore(t)
	old := os.Getenv(EnvDefaultTarget)
	_ = os.Setenv(EnvDefaultTarget, "RENPY")
	t.Cleanup(func() { _ = os.Setenv(EnvDefaultTarget, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.DefaultTarget != "renpy" {
		t.Fatalf("DefaultTarget = %q, want renpy", cfg.General.DefaultTarget)
	}
}

func TestMergeIncludesDefaultTarget(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.General.DefaultTarget = "fflow"
	src.General.VerifyRoundTrip = false
	mergeInto(&dst, &src)
	if dst.General.DefaultTarget != "fflow" {
		t.Fatalf("DefaultTarget was not merged from file config")
	}
	if dst.General.VerifyRoundTrip {
		t.Fatalf("VerifyRoundTrip was not merged from file config")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/ffw.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/ffw.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	withFakeStore(t)
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "X:/ffw.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/ffw.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSecretRoundTrip(t *testing.T) {
	fs := withFakeStore(t)
	if err := secretStore.Set(keyringService, keyringPassword, "s3cret"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, err := fs.Get(keyringService, keyringPassword)
	if err != nil || got != "s3cret" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}
