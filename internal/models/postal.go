package models

// PostOffice is one entry of the postal service's PostOffice list.
type PostOffice struct {
	Name           string `json:"Name"`
	Description    string `json:"Description,omitempty"`
	BranchType     string `json:"BranchType,omitempty"`
	DeliveryStatus string `json:"DeliveryStatus,omitempty"`
	Circle         string `json:"Circle,omitempty"`
	District       string `json:"District,omitempty"`
	Division       string `json:"Division,omitempty"`
	Region         string `json:"Region,omitempty"`
	Block          string `json:"Block,omitempty"`
	State          string `json:"State,omitempty"`
	Country        string `json:"Country,omitempty"`
	Pincode        string `json:"Pincode"`
}

// PostalResult is the outcome of resolving a record's pincode. Only Pincode
// is set when it was read straight from the address.
type PostalResult struct {
	Pincode  string `json:"pincode"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	Region   string `json:"region,omitempty"`
}

// ResultFromOffice maps a post office to a result.
func ResultFromOffice(po PostOffice) *PostalResult {
	return &PostalResult{
		Pincode:  po.Pincode,
		District: po.District,
		State:    po.State,
		Region:   po.Region,
	}
}

// Summary is the one-line address copied from the details page.
func (po PostOffice) Summary() string {
	return po.Name + " Post Office, Pincode: " + po.Pincode + ", District: " + po.District + ", State: " + po.State
}
