package main

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"cropadvisor/models"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var exportHeader = []string{
	"Date", "Soil Type", "Area (acres)", "Irrigation", "Latitude", "Longitude",
	"District", "Region", "Source", "Top Crop", "Crops", "Confidence",
}

var titleCase = cases.Title(language.English)

// exportRows flattens recommendations into spreadsheet rows, header first.
func exportRows(recs []models.Recommendation) [][]string {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, exportHeader)
	for _, rec := range recs {
		var region, top, confidence string
		if rec.Result != nil {
			region = rec.Result.Region
			confidence = strconv.FormatFloat(rec.Result.Confidence, 'f', 2, 64)
		}
		crops := rec.CropNames()
		if len(crops) > 0 {
			top = crops[0]
		}
		rows = append(rows, []string{
			rec.CreatedAt.UTC().Format("2006-01-02 15:04"),
			titleCase.String(rec.SoilType),
			strconv.FormatFloat(rec.Area, 'f', -1, 64),
			rec.IrrigationFrequency,
			strconv.FormatFloat(rec.Location.Latitude, 'f', 4, 64),
			strconv.FormatFloat(rec.Location.Longitude, 'f', 4, 64),
			rec.District,
			region,
			rec.Source,
			top,
			strings.Join(crops, "; "),
			confidence,
		})
	}
	return rows
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	return nil
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Recommendations")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	for _, data := range rows {
		row := sheet.AddRow()
		for _, v := range data {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
