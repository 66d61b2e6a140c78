package client

import (
	"bytes"
	"io"
	"mime/multipart"
)

// FormField is one text part of a multipart request.
type FormField struct {
	Name  string
	Value string
}

// FormFile is one file part of a multipart request.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Multipart is a request payload sent as multipart/form-data instead of JSON.
// It is buffered in memory so the request can be replayed after a refresh.
type Multipart struct {
	Fields []FormField
	Files  []FormFile
}

// Add appends a text field.
func (m *Multipart) Add(name, value string) {
	m.Fields = append(m.Fields, FormField{Name: name, Value: value})
}

func (m *Multipart) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
