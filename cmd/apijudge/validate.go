package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/inference/backends"
	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
	"github.com/at-ishikawa/apijudge/internal/server"
)

var errInvalidResponse = errors.New("the response is not valid")

func newValidateCommand() *cobra.Command {
	var (
		fields            []string
		validationContext string
		serverURL         string
	)

	command := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Validate one JSON response semantically",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := readResponse(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			req := inference.ValidationRequest{
				Response:       response,
				ExpectedFields: fields,
				Context:        validationContext,
			}

			var result server.ValidateResponse
			if serverURL != "" {
				result, err = validateRemote(cmd.Context(), serverURL, req)
			} else {
				result, err = validateLocal(cmd.Context(), req)
			}
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("json.MarshalIndent() > %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(output)); err != nil {
				return fmt.Errorf("fmt.Fprintln() > %w", err)
			}
			if !result.IsValid {
				return errInvalidResponse
			}
			return nil
		},
	}

	command.Flags().StringSliceVar(&fields, "fields", nil, "Expected fields, dotted paths allowed (e.g. id,address.city)")
	command.Flags().StringVar(&validationContext, "context", "", "Business rules the response must satisfy")
	command.Flags().StringVar(&serverURL, "server", "", "Validate through an apijudge-server at this URL instead of calling the backend directly")

	return command
}

func readResponse(stdin io.Reader, args []string) (jsonvalue.Value, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("failed to read the response: %w", err)
	}

	response, err := jsonvalue.Parse(data)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("the response is not valid JSON: %w", err)
	}
	return response, nil
}

func validateLocal(ctx context.Context, req inference.ValidationRequest) (server.ValidateResponse, error) {
	cfg, err := loadConfig()
	if err != nil {
		return server.ValidateResponse{}, err
	}
	client, closeClient, err := backends.New(ctx, cfg.Backend, cfg)
	if err != nil {
		return server.ValidateResponse{}, fmt.Errorf("backends.New() > %w", err)
	}
	defer func() {
		_ = closeClient()
	}()

	v := backends.NewValidator(client, cfg)
	result, err := v.Validate(ctx, req)
	if err != nil {
		return server.ValidateResponse{}, fmt.Errorf("validator.Validate() > %w", err)
	}
	return server.ValidateResponse{
		IsValid:       result.IsValid,
		Feedback:      result.Feedback,
		MissingFields: req.MissingFields(),
		Backend:       v.Backend(),
	}, nil
}

func validateRemote(ctx context.Context, serverURL string, req inference.ValidationRequest) (server.ValidateResponse, error) {
	client := server.NewValidatorClient(http.DefaultClient, serverURL)
	res, err := client.CallUnary(ctx, connect.NewRequest(&server.ValidateRequest{
		Response:       req.Response,
		ExpectedFields: req.ExpectedFields,
		Context:        req.Context,
	}))
	if err != nil {
		return server.ValidateResponse{}, fmt.Errorf("client.CallUnary(%s) > %w", serverURL, err)
	}
	return *res.Msg, nil
}
