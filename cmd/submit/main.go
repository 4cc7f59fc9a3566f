/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"crypverify-go/internal/api"
	"crypverify-go/internal/common"
	"crypverify-go/internal/config"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

// openDocument opens a local file for upload. The caller closes it.
func openDocument(label, path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("%s file is required", label)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s %s: %w", label, path, err)
	}
	return f, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Submitter's full name (required)")
	emailFlag := flag.String("email", "", "Submitter's email address (required)")
	hashFlag := flag.String("hash", "", "Transaction hash being verified (required)")
	idFlag := flag.String("id", "", "Path to the identity document (required)")
	selfieFlag := flag.String("selfie", "", "Path to the selfie (required)")
	receiptFlag := flag.String("receipt", "", "Path to the payment receipt (required)")
	flag.Parse()

	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}
	if *hashFlag == "" {
		zap.L().Fatal("The --hash flag is required")
	}

	paths := map[string]string{"id document": *idFlag, "selfie": *selfieFlag, "receipt": *receiptFlag}
	files := make(map[string]*os.File, len(paths))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for label, path := range paths {
		f, err := openDocument(label, path)
		if err != nil {
			zap.L().Fatal("Invalid document", zap.Error(err))
		}
		files[label] = f
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	upload := func(label string) api.DocumentUpload {
		return api.DocumentUpload{Filename: filepath.Base(files[label].Name()), Content: files[label]}
	}

	sub, err := services.Verification.Submit(ctx, api.SubmitParams{
		FullName:   *nameFlag,
		Email:      *emailFlag,
		TxHash:     *hashFlag,
		IdDocument: upload("id document"),
		Selfie:     upload("selfie"),
		Receipt:    upload("receipt"),
	})
	if err != nil {
		if errors.Is(err, api.ErrInvalidRequest) {
			zap.L().Fatal("Submission rejected", zap.Error(err))
		}
		zap.L().Fatal("Failed to record submission", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader(os.Stdout, "SUBMISSION RECEIVED", common.DefaultWidth)
	fmt.Printf("Reference: %s\n", sub.ReferenceId)
	fmt.Printf("Name:      %s\n", sub.FullName)
	fmt.Printf("Email:     %s\n", sub.Email)
	fmt.Printf("Hash:      %s\n", sub.TxHash)
	fmt.Printf("Status:    %s\n", sub.Status)
	common.PrintSeparator(os.Stdout, "=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Submission recorded", zap.String("reference_id", sub.ReferenceId))
}
