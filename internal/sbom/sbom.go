// Package sbom extracts git repositories from SPDX documents.
package sbom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/spdx/tools-golang/json"
	"github.com/spdx/tools-golang/rdf"
	"github.com/spdx/tools-golang/spdx"
	"github.com/spdx/tools-golang/tagvalue"
	"github.com/spdx/tools-golang/yaml"
)

// ErrUnsupportedFormat is returned for files whose extension is not an SPDX serialization.
var ErrUnsupportedFormat = errors.New("Unsupported SPDX file type") //nolint:staticcheck // message shown to users as is

// ParseError wraps a document that could not be decoded.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error while parsing document %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Format is an SPDX serialization.
type Format string

// Supported serializations.
const (
	JSONFormat     Format = "json"
	YAMLFormat     Format = "yaml"
	TagValueFormat Format = "tag-value"
	RDFFormat      Format = "rdf"
	XMLFormat      Format = "xml"
)

// DetectFormat picks the serialization from the file extension.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".json"):
		return JSONFormat, nil
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return YAMLFormat, nil
	case strings.HasSuffix(name, ".spdx"), strings.HasSuffix(name, ".tag"):
		return TagValueFormat, nil
	case strings.HasSuffix(name, ".rdf"), strings.HasSuffix(name, ".rdf.xml"):
		return RDFFormat, nil
	case strings.HasSuffix(name, ".xml"):
		return XMLFormat, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// gitRepoRegex finds a git URI in a download location. The fifth group is
// the host and path without the ".git" suffix.
var gitRepoRegex = regexp.MustCompile(`((git|http(s)?)|(git@[\w\.]+))://?([\w\.@\:/\-~]+)(\.git)(/)?`)

// GetRepository returns the https URI of the git repository in a download
// location, or "" when there is none.
func GetRepository(downloadLocation string) string {
	if !isValid(downloadLocation) {
		return ""
	}
	match := gitRepoRegex.FindStringSubmatch(downloadLocation)
	if match == nil {
		return ""
	}
	return "https://" + match[5]
}

// isValid rejects empty locations and the SPDX NONE and NOASSERTION markers.
func isValid(location string) bool {
	switch strings.TrimSpace(location) {
	case "", "NONE", "NOASSERTION":
		return false
	}
	return true
}

// ParsePackages reads an SPDX document and resolves the git repository of
// each package. Packages without one are kept with an empty Repository.
func ParsePackages(path string, log *contract.Logger) ([]schema.Package, error) {
	log.Infof("Parsing file %s", path)

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw, err := readPackages(f, format)
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}

	packages := make([]schema.Package, 0, len(raw))
	for _, pkg := range raw {
		pkg.Repository = GetRepository(pkg.downloadLocation)
		if pkg.Repository == "" {
			log.Warnf("Could not find a git repository for %s (%s)", pkg.SPDXID, pkg.Name)
		}
		packages = append(packages, pkg.Package)
	}
	return packages, nil
}

type rawPackage struct {
	schema.Package
	downloadLocation string
}

func readPackages(r io.Reader, format Format) ([]rawPackage, error) {
	if format == XMLFormat {
		return readXMLPackages(r)
	}

	var (
		doc *spdx.Document
		err error
	)
	switch format {
	case JSONFormat:
		doc, err = json.Read(r)
	case YAMLFormat:
		doc, err = yaml.Read(r)
	case TagValueFormat:
		doc, err = tagvalue.Read(r)
	case RDFFormat:
		doc, err = rdf.Read(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("empty document")
	}

	packages := make([]rawPackage, 0, len(doc.Packages))
	for _, p := range doc.Packages {
		if p == nil {
			continue
		}
		packages = append(packages, rawPackage{
			Package: schema.Package{
				SPDXID: elementRef(string(p.PackageSPDXIdentifier)),
				Name:   p.PackageName,
			},
			downloadLocation: p.PackageDownloadLocation,
		})
	}
	return packages, nil
}

// xmlDocument is the subset of the SPDX 2 XML serialization that carries packages.
type xmlDocument struct {
	SPDXID   string `xml:"SPDXID"`
	Packages []struct {
		SPDXID           string `xml:"SPDXID"`
		Name             string `xml:"name"`
		DownloadLocation string `xml:"downloadLocation"`
	} `xml:"packages"`
}

func readXMLPackages(r io.Reader) ([]rawPackage, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.SPDXID == "" {
		return nil, errors.New("missing document SPDXID")
	}

	packages := make([]rawPackage, 0, len(doc.Packages))
	for _, p := range doc.Packages {
		if p.SPDXID == "" {
			return nil, fmt.Errorf("package %q has no SPDXID", p.Name)
		}
		packages = append(packages, rawPackage{
			Package:          schema.Package{SPDXID: elementRef(p.SPDXID), Name: p.Name},
			downloadLocation: strings.TrimSpace(p.DownloadLocation),
		})
	}
	return packages, nil
}

// elementRef returns the SPDX identifier with its "SPDXRef-" prefix.
func elementRef(id string) string {
	if strings.HasPrefix(id, "SPDXRef-") {
		return id
	}
	return "SPDXRef-" + id
}

// Repositories returns the distinct repositories of packages in first-seen order.
func Repositories(packages []schema.Package) []string {
	repos := make([]string, 0, len(packages))
	for _, p := range packages {
		if p.Repository != "" && !slices.Contains(repos, p.Repository) {
			repos = append(repos, p.Repository)
		}
	}
	return repos
}
