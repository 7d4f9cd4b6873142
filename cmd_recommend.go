package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"cropadvisor/recommend"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var recFlags struct {
	lat, lon  float64
	soil      string
	area      float64
	frequency string
	district  string
	past      []string
	offline   bool
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print a recommendation for one plot as JSON",
	Example: `  cropadvisor recommend --lat 23.8 --lon 86.8 --soil alluvial --area 4.5 --frequency 3
  cropadvisor recommend --lat 28.6 --lon 77.2 --soil loamy --area 2 --frequency weekly --offline`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := recommendReq{
			Latitude:            &recFlags.lat,
			Longitude:           &recFlags.lon,
			SoilType:            recFlags.soil,
			Area:                &recFlags.area,
			IrrigationFrequency: flexString(recFlags.frequency),
			District:            recFlags.district,
		}
		for _, name := range recFlags.past {
			req.PastCrops = append(req.PastCrops, recommend.PastCrop{Name: strings.TrimSpace(name)})
		}

		advisor, err := newAdvisor(cfg.AI, recFlags.offline)
		if err != nil {
			return err
		}

		if errs := validateRecommend(req, advisor.Tables().SoilTypes()); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Field + ": " + e.Message
			}
			return eris.New("recommend: " + strings.Join(msgs, "; "))
		}

		out := advisor.GetCropRecommendations(cmd.Context(), req.toRequest())
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "recommend: encode")
		}
		if !out.Success {
			fmt.Fprintln(cmd.ErrOrStderr(), "model unavailable, rule tables used:", out.Error)
		}
		return nil
	},
}

func init() {
	f := recommendCmd.Flags()
	f.Float64Var(&recFlags.lat, "lat", 0, "latitude")
	f.Float64Var(&recFlags.lon, "lon", 0, "longitude")
	f.StringVar(&recFlags.soil, "soil", recommend.DefaultSoil, "soil type")
	f.Float64Var(&recFlags.area, "area", 1, "area in acres")
	f.StringVar(&recFlags.frequency, "frequency", "2", "irrigation frequency code 0-5 or schedule keyword")
	f.StringVar(&recFlags.district, "district", "", "district name")
	f.StringSliceVar(&recFlags.past, "past", nil, "previously grown crops")
	f.BoolVar(&recFlags.offline, "offline", false, "skip the model service and use rule tables")
	_ = recommendCmd.MarkFlagRequired("lat")
	_ = recommendCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(recommendCmd)
}
