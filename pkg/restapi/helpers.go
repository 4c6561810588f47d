/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func parseResponse(response *http.Response, contentType string) ([]byte, error) {
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		if len(body) > 0 {
			return nil, fmt.Errorf("error received from server, code %d\nmessage: %s", response.StatusCode, string(body))
		}

		return nil, fmt.Errorf("error received from server, code %d", response.StatusCode)
	}

	if !strings.HasPrefix(response.Header.Get("Content-Type"), contentType) {
		return nil, fmt.Errorf("expected Content-Type=%s, received %s", contentType, response.Header.Get("Content-Type"))
	}

	return body, nil
}

func parseJsonResponse[T any](response *http.Response) (T, error) {
	var result T

	body, err := parseResponse(response, "application/json")
	if err != nil {
		return result, err
	}

	err = json.Unmarshal(body, &result)
	return result, err
}

func validateResponse(response *http.Response) error {
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		if len(body) > 0 {
			return fmt.Errorf("error received from server, code %d\nmessage: %s", response.StatusCode, string(body))
		}

		return fmt.Errorf("error received from server, code %d", response.StatusCode)
	}

	return nil
}

func jsonReaderFromObject[T any](object T) (io.Reader, error) {
	data, err := json.Marshal(object)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(data), nil
}
