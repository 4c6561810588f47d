/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package net

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func Respond[T any](w http.ResponseWriter, code int, obj T) error {
	data, err := json.Marshal(obj)
	if err == nil {
		w.Header().Add("Content-Type", "application/json")
		w.Header().Add("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(code)
		_, err = w.Write(data)
	}

	return err
}

func RespondWithString(w http.ResponseWriter, code int, msg string) error {
	w.Header().Add("Content-Type", "text/plain")
	w.Header().Add("Content-Length", fmt.Sprint(len(msg)))
	w.WriteHeader(code)
	_, err := io.WriteString(w, msg)
	return err
}

func RespondEmpty(w http.ResponseWriter, code int) {
	w.WriteHeader(code)
}

func ReadRequestBody[T any](r *http.Request) (T, error) {
	var value T

	message, err := io.ReadAll(r.Body)
	if err != nil {
		return value, err
	}

	err = json.Unmarshal(message, &value)
	return value, err
}
