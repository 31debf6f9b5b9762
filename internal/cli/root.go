// Package cli implements the rulecheck command line tool. It evaluates the
// order-intake rules locally without the order store.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/business-rules-service/internal/application"
	apperrors "github.com/wms-platform/business-rules-service/pkg/errors"
	"github.com/wms-platform/business-rules-service/pkg/logging"
)

// Shipment is the file format read by validate and assess. JSON files are
// accepted as well since JSON is valid YAML.
type Shipment struct {
	Boxes      []ShipmentBox  `yaml:"boxes"`
	Items      []ShipmentItem `yaml:"items"`
	MemberCode *string        `yaml:"memberCode"`
	WeightsKg  []float64      `yaml:"weightsKg"`
}

// ShipmentBox is one box of a shipment file, in centimetres
type ShipmentBox struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Depth  float64 `yaml:"depth"`
}

// ShipmentItem is one priced line of a shipment file
type ShipmentItem struct {
	Amount   float64 `yaml:"amount"`
	Currency string  `yaml:"currency"`
}

type runner struct {
	service *application.BusinessRuleApplicationService
}

// NewRootCommand builds the rulecheck command tree. A nil service gets a
// stateless one with a discarding logger.
func NewRootCommand(service *application.BusinessRuleApplicationService) *cobra.Command {
	if service == nil {
		service = application.NewBusinessRuleApplicationService(nil, logging.NewNop(), nil)
	}
	r := &runner{service: service}

	root := &cobra.Command{
		Use:           "rulecheck",
		Short:         "Evaluate order-intake business rules",
		Long:          `Evaluates the CBM, high-value and member-code rules for boxes and shipment files and prints the result as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("compact", false, "print single-line JSON")

	root.AddCommand(
		r.cbmCommand(),
		r.shippingMethodCommand(),
		r.validateCommand(),
		r.assessCommand(),
		r.thresholdsCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code
func Execute(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", describe(err))
		return 1
	}
	return 0
}

func (r *runner) cbmCommand() *cobra.Command {
	var width, height, depth float64
	cmd := &cobra.Command{
		Use:   "cbm",
		Short: "Calculate the volume of one box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := r.service.CalculateCBM(cmd.Context(), application.CalculateCBMCommand{
				Box: application.BoxInput{Width: width, Height: height, Depth: depth},
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "box width in cm")
	cmd.Flags().Float64Var(&height, "height", 0, "box height in cm")
	cmd.Flags().Float64Var(&depth, "depth", 0, "box depth in cm")
	for _, name := range []string{"width", "height", "depth"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (r *runner) shippingMethodCommand() *cobra.Command {
	var cbm float64
	cmd := &cobra.Command{
		Use:   "shipping-method",
		Short: "Select sea or air freight for a volume in m³",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cbm < 0 {
				return apperrors.ErrValidationWithFields("validation failed", map[string]string{
					"cbm": "must be zero or greater",
				})
			}
			return printJSON(cmd, r.service.DetermineShippingMethod(cmd.Context(), application.ShippingMethodQuery{CBM: cbm}))
		},
	}
	cmd.Flags().Float64Var(&cbm, "cbm", 0, "shipment volume in m³")
	_ = cmd.MarkFlagRequired("cbm")
	return cmd
}

func (r *runner) validateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the contract rules against a shipment file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shipment, err := readShipment(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			result, err := r.service.ValidateOrder(cmd.Context(), application.ValidateOrderCommand{
				Boxes:      shipment.boxInputs(),
				Items:      shipment.itemInputs(),
				MemberCode: shipment.MemberCode,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `shipment file (YAML or JSON), "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (r *runner) assessCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run the rules plus parcel and threshold advisories against a shipment file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shipment, err := readShipment(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			result, err := r.service.AssessShipment(cmd.Context(), application.AssessShipmentCommand{
				Boxes:      shipment.boxInputs(),
				Items:      shipment.itemInputs(),
				MemberCode: shipment.MemberCode,
				WeightsKg:  shipment.WeightsKg,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `shipment file (YAML or JSON), "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (r *runner) thresholdsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Print the rule thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, r.service.Thresholds(cmd.Context()))
		},
	}
}

func readShipment(stdin io.Reader, file string) (*Shipment, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shipment: %w", err)
	}

	var shipment Shipment
	if err := yaml.Unmarshal(data, &shipment); err != nil {
		return nil, apperrors.ErrBadRequest("shipment file is not valid YAML or JSON").Wrap(err)
	}
	return &shipment, nil
}

func (s *Shipment) boxInputs() []application.BoxInput {
	out := make([]application.BoxInput, len(s.Boxes))
	for i, b := range s.Boxes {
		out[i] = application.BoxInput{Width: b.Width, Height: b.Height, Depth: b.Depth}
	}
	return out
}

func (s *Shipment) itemInputs() []application.LineItemInput {
	out := make([]application.LineItemInput, len(s.Items))
	for i, item := range s.Items {
		out[i] = application.LineItemInput{Amount: item.Amount, Currency: item.Currency}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	compact, _ := cmd.Flags().GetBool("compact")
	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// describe renders an error with its field details in a stable order
func describe(err error) string {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return err.Error()
	}
	if len(appErr.Details) == 0 {
		return appErr.Message
	}

	keys := make([]string, 0, len(appErr.Details))
	for k := range appErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, appErr.Details[k])
	}
	return fmt.Sprintf("%s (%s)", appErr.Message, strings.Join(parts, "; "))
}
