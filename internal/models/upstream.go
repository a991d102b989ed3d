package models

// Upstream wire shapes. The dispatch body and status response mirror the
// scraping service's API; everything else in the coordinator treats these
// as opaque.

// DispatchPayload is the body of the upstream dispatch POST. Field names
// match what the service expects; the session ID is sent with any provider
// prefix already stripped.
type DispatchPayload struct {
	SessionID  string   `json:"JSESSIONID"`
	AuthToken  string   `json:"li_at"`
	ProfileIDs []string `json:"profile_ids"`
	Proxy      string   `json:"proxy,omitempty"`
}

// DispatchResponse carries the job handle assigned by the upstream service
type DispatchResponse struct {
	BatchID string `json:"batch_id"`
}

// BatchStatusResponse is the upstream poll response. Status values outside
// the known set leave the poller in its pending state.
type BatchStatusResponse struct {
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ExtractResults defensively unwraps the upstream result payload into a
// flat record list. The service has shipped several shapes over time:
// a bare list, a {"result": [...]} or {"data": [...]} wrapper, and a
// single object for one-profile batches.
func ExtractResults(payload interface{}) []ResultRecord {
	switch v := payload.(type) {
	case nil:
		return nil
	case []interface{}:
		records := make([]ResultRecord, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				records = append(records, ResultRecord(m))
			}
		}
		return records
	case map[string]interface{}:
		if inner, ok := v["result"]; ok {
			if records := ExtractResults(inner); records != nil {
				return records
			}
		}
		if inner, ok := v["data"]; ok {
			if records := ExtractResults(inner); records != nil {
				return records
			}
		}
		return []ResultRecord{ResultRecord(v)}
	default:
		return nil
	}
}
