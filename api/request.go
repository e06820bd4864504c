package api

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"tokensmith.com/stl/tagger"
	"tokensmith.com/stl/types"
)

type Request struct {
	Tagger *tagger.SequenceTagger
}

// TagData accepts a JSON array of examples and responds with per-token
// labels and confidences.
func (req *Request) TagData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != "POST" {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	var examples []types.Example
	if err := json.Unmarshal(msg, &examples); err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not unmarshal examples")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	logger.Info().Msgf("Tagging %d examples from API", len(examples))
	predictions, err := req.Tagger.PredictProba(examples)
	if err != nil {
		logger.Err(err).Int("status", http.StatusInternalServerError).Msg("Tagging failed")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	resp, err := json.Marshal(predictions)
	if err != nil {
		logger.Err(err).Int("status", http.StatusInternalServerError).Msg("Could not marshal predictions")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(resp)
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
