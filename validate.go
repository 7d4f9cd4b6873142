package main

import (
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"cropadvisor/models"
	"cropadvisor/recommend"
)

const minArea = 0.1 // acres

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type checker struct{ errs []fieldError }

func (c *checker) check(ok bool, field, msg string) {
	if !ok {
		c.errs = append(c.errs, fieldError{Field: field, Message: msg})
	}
}

// validFrequency accepts codes 0-5 and the older keyword vocabulary.
func validFrequency(f string) bool {
	f = strings.TrimSpace(f)
	if recommend.IsLegacyFrequency(f) {
		return true
	}
	n, err := strconv.Atoi(f)
	return err == nil && n >= 0 && n <= 5
}

func validateRecommend(req recommendReq, soils []string) []fieldError {
	var c checker
	latField, lonField := "latitude", "longitude"
	if req.Location != nil {
		latField, lonField = "location.latitude", "location.longitude"
	}
	lat, lon := req.coordinates()
	c.check(lat != nil && *lat >= -90 && *lat <= 90,
		latField, "Latitude must be between -90 and 90")
	c.check(lon != nil && *lon >= -180 && *lon <= 180,
		lonField, "Longitude must be between -180 and 180")
	c.check(slices.Contains(soils, strings.ToLower(strings.TrimSpace(req.SoilType))),
		"soilType", "Soil type must be one of: "+strings.Join(soils, ", "))
	c.check(req.Area != nil && *req.Area >= minArea,
		"area", "Area must be at least 0.1 acres")
	c.check(validFrequency(string(req.IrrigationFrequency)),
		"irrigationFrequency", "Irrigation frequency must be 0-5 or a known schedule")
	for i, pc := range req.PastCrops {
		c.check(strings.TrimSpace(pc.Name) != "",
			"pastCrops["+strconv.Itoa(i)+"].name", "Crop name is required")
	}
	return c.errs
}

func validName(s string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= 2 && n <= 50
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validateRegister(req registerReq) []fieldError {
	var c checker
	c.check(validName(req.Name), "name", "Name must be between 2 and 50 characters")
	c.check(validEmail(strings.TrimSpace(req.Email)), "email", "Please provide a valid email")
	c.check(req.Phone == "" || phonePattern.MatchString(req.Phone), "phone", "Phone must be 10-15 digits")
	c.check(len(req.Password) >= 6, "password", "Password must be at least 6 characters")
	if req.Location != nil {
		validateLocation(&c, *req.Location)
	}
	return c.errs
}

func validateProfile(req profileReq) []fieldError {
	var c checker
	if req.Name != nil {
		c.check(validName(*req.Name), "name", "Name must be between 2 and 50 characters")
	}
	if req.Phone != nil {
		c.check(phonePattern.MatchString(strings.TrimSpace(*req.Phone)), "phone", "Phone must be 10-15 digits")
	}
	if req.Location != nil {
		validateLocation(&c, *req.Location)
	}
	return c.errs
}

func validateLocation(c *checker, l models.Location) {
	c.check(l.Latitude >= -90 && l.Latitude <= 90, "location.latitude", "Latitude must be between -90 and 90")
	c.check(l.Longitude >= -180 && l.Longitude <= 180, "location.longitude", "Longitude must be between -180 and 180")
}
