package sessionservice

import (
	"net/http"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/nordcodes/session-contract-tests/servicedef"
)

func writeOutcome(w http.ResponseWriter, outcome Outcome) {
	writeResult(w, http.StatusOK, outcome.Result, outcome.Message)
}

func writeResult(w http.ResponseWriter, status int, result servicedef.Result, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(resultJSON(result, message))
}

func resultJSON(result servicedef.Result, message string) []byte {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	obj.Name(servicedef.PropResult).String(string(result))
	if message != "" {
		obj.Name(servicedef.PropMessage).String(message)
	}
	obj.End()
	return writer.Bytes()
}
