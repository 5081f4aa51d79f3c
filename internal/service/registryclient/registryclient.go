package registryclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/iurnickita/airbilling/internal/model"
)

// JSON answer of the aircraft registry
type AircraftAnswer struct {
	Registration string `json:"registration"`
	MTOWKg       *int   `json:"mtow_kg"`
	AirlineCode  string `json:"airline_code"`
	AirlineName  string `json:"airline_name"`
	AircraftType string `json:"aircraft_type"`
}

type RegistryClient interface {
	LookupAircraftByRegistration(registration string) ([]model.AircraftInfo, error)
}

type registryClient struct {
	serviceAddr string
}

func NewRegistryClient(serviceAddr string) RegistryClient {
	return registryClient{serviceAddr: serviceAddr}
}

func (client registryClient) LookupAircraftByRegistration(registration string) ([]model.AircraftInfo, error) {
	path := "/api/aircraft/"

	setreq := resty.New().R()
	setreq.Method = http.MethodGet
	setreq.URL = client.serviceAddr + path + registration
	setresp, err := setreq.Send()
	if err != nil {
		return nil, err
	}

	switch setresp.StatusCode() {
	case http.StatusOK:
		var answers []AircraftAnswer
		err = json.Unmarshal(setresp.Body(), &answers)
		if err != nil {
			return nil, err
		}
		infos := make([]model.AircraftInfo, 0, len(answers))
		for _, answer := range answers {
			infos = append(infos, model.AircraftInfo{
				MTOWKg:       answer.MTOWKg,
				AirlineCode:  answer.AirlineCode,
				AirlineName:  answer.AirlineName,
				AircraftType: answer.AircraftType,
			})
		}
		return infos, nil
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("registry request status: %d", setresp.StatusCode())
	}
}
