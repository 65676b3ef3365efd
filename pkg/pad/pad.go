// Package pad implements a lightweight Portable Application Description
// (PAD) 4.0 reader (http://pad.asp-software.org/spec/spec.php).
//
// Only the fields consumed by the product handlers are validated; a PAD file
// whose mandatory fields are missing or malformed yields a SyntaxError.
package pad

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// SyntaxError is raised when a PAD document violates the specification.
type SyntaxError struct {
	Field  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("erroneous PAD file: field %s %s", e.Field, e.Reason)
}

// Validation patterns from the PAD 4.0 specification for the fields the
// handlers consume.
var (
	versionRe = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,40}$`)
	monthRe   = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	dayRe     = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])$`)
	yearRe    = regexp.MustCompile(`^(19|20)[0-9]{2}$`)
)

// Document is a parsed XML_DIZ_INFO document.
type Document struct {
	XMLName xml.Name `xml:"XML_DIZ_INFO"`

	CompanyInfo struct {
		CompanyName string `xml:"Company_Name"`
	} `xml:"Company_Info"`

	ProgramInfo struct {
		Name         string `xml:"Program_Name"`
		Version      string `xml:"Program_Version"`
		ReleaseMonth string `xml:"Program_Release_Month"`
		ReleaseDay   string `xml:"Program_Release_Day"`
		ReleaseYear  string `xml:"Program_Release_Year"`
		FileInfo     struct {
			SizeBytes string `xml:"File_Size_Bytes"`
		} `xml:"File_Info"`
	} `xml:"Program_Info"`

	Descriptions struct {
		English struct {
			CharDesc250 string `xml:"Char_Desc_250"`
		} `xml:"English"`
	} `xml:"Program_Descriptions"`

	WebInfo struct {
		ApplicationURLs struct {
			IconURL string `xml:"Application_Icon_URL"`
		} `xml:"Application_URLs"`
		DownloadURLs struct {
			PrimaryDownloadURL string `xml:"Primary_Download_URL"`
		} `xml:"Download_URLs"`
	} `xml:"Web_Info"`
}

// Parse reads and validates a PAD document.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse the PAD file: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if d.ProgramInfo.Name == "" {
		return &SyntaxError{"Program_Info/Program_Name", "is missing"}
	}
	if !versionRe.MatchString(d.ProgramInfo.Version) {
		return &SyntaxError{"Program_Info/Program_Version", "does not match the specification"}
	}
	if d.ProgramInfo.ReleaseMonth != "" && !monthRe.MatchString(d.ProgramInfo.ReleaseMonth) {
		return &SyntaxError{"Program_Info/Program_Release_Month", "does not match the specification"}
	}
	if d.ProgramInfo.ReleaseDay != "" && !dayRe.MatchString(d.ProgramInfo.ReleaseDay) {
		return &SyntaxError{"Program_Info/Program_Release_Day", "does not match the specification"}
	}
	if d.ProgramInfo.ReleaseYear != "" && !yearRe.MatchString(d.ProgramInfo.ReleaseYear) {
		return &SyntaxError{"Program_Info/Program_Release_Year", "does not match the specification"}
	}
	if d.WebInfo.DownloadURLs.PrimaryDownloadURL == "" {
		return &SyntaxError{"Web_Info/Download_URLs/Primary_Download_URL", "is missing"}
	}
	return nil
}

// ReleaseDate returns the program release date in ISO 8601 form, or an empty
// string when the PAD file does not carry a full date.
func (d *Document) ReleaseDate() string {
	if d.ProgramInfo.ReleaseYear == "" || d.ProgramInfo.ReleaseMonth == "" ||
		d.ProgramInfo.ReleaseDay == "" {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", d.ProgramInfo.ReleaseYear,
		d.ProgramInfo.ReleaseMonth, d.ProgramInfo.ReleaseDay)
}

// FileSize returns the declared installer size in bytes, or -1 when absent
// or malformed.
func (d *Document) FileSize() int64 {
	n, err := strconv.ParseInt(d.ProgramInfo.FileInfo.SizeBytes, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
