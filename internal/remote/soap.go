package remote

import (
	"encoding/xml"
	"fmt"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

const soapEnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

type sessionHeader struct {
	SessionID string `xml:"sessionId"`
}

type callOptions struct {
	Client string `xml:"client"`
}

type requestHeader struct {
	SessionHeader sessionHeader `xml:"SessionHeader"`
	CallOptions   callOptions   `xml:"CallOptions"`
}

type requestBody struct {
	Content any
}

type requestEnvelope struct {
	XMLName xml.Name      `xml:"soapenv:Envelope"`
	SoapEnv string        `xml:"xmlns:soapenv,attr"`
	Xmlns   string        `xml:"xmlns,attr"`
	Header  requestHeader `xml:"soapenv:Header"`
	Body    requestBody   `xml:"soapenv:Body"`
}

func newEnvelope(sessionID, client string, content any) requestEnvelope {
	return requestEnvelope{
		SoapEnv: soapEnvelopeNamespace,
		Xmlns:   sfmeta.MetadataNamespace,
		Header: requestHeader{
			SessionHeader: sessionHeader{SessionID: sessionID},
			CallOptions:   callOptions{Client: client},
		},
		Body: requestBody{Content: content},
	}
}

// Request bodies, one per metadata API operation.

type deployRequest struct {
	XMLName       xml.Name             `xml:"deploy"`
	ZipFile       string               `xml:"ZipFile"`
	DeployOptions sfmeta.DeployOptions `xml:"DeployOptions"`
}

type checkDeployStatusRequest struct {
	XMLName        xml.Name `xml:"checkDeployStatus"`
	AsyncProcessID string   `xml:"asyncProcessId"`
	IncludeDetails bool     `xml:"includeDetails"`
}

type cancelDeployRequest struct {
	XMLName xml.Name `xml:"cancelDeploy"`
	ID      string   `xml:"String"`
}

type retrieveRequest struct {
	XMLName         xml.Name               `xml:"retrieve"`
	RetrieveRequest sfmeta.RetrieveRequest `xml:"retrieveRequest"`
}

type checkRetrieveStatusRequest struct {
	XMLName        xml.Name `xml:"checkRetrieveStatus"`
	AsyncProcessID string   `xml:"asyncProcessId"`
	IncludeZip     bool     `xml:"includeZip"`
}

// Fault is a SOAP fault returned by the metadata API.
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.String)
}

// responseEnvelope decodes <operation>Response/result under the SOAP body.
type responseEnvelope[T any] struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    struct {
		Fault    *Fault `xml:"Fault"`
		Response struct {
			Result T `xml:"result"`
		} `xml:",any"`
	} `xml:"Body"`
}
