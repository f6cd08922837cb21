package units

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PATCH(path string, body any) error
	GET(path string, headers map[string]string) error
	AdminPOST(path string) error
	GetResponseField(field string) (any, error)
	Remember(name, value string)
	Recall(name string) string
}

// RegisterSteps registers blood unit step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &unitSteps{tc: tc}

	ctx.Step(`^I register (\d+) units of "([^"]*)" at lab "([^"]*)"$`, steps.registerAtLab)
	ctx.Step(`^I register (\d+) units of "([^"]*)" at hospital "([^"]*)"$`, steps.registerAtHospital)
	ctx.Step(`^I register (\d+) units of "([^"]*)" at lab "([^"]*)" and hospital "([^"]*)"$`, steps.registerAtBoth)
	ctx.Step(`^I register (\d+) units of "([^"]*)" without a facility$`, steps.registerWithoutFacility)
	ctx.Step(`^I remember the unit as "([^"]*)"$`, steps.rememberUnit)
	ctx.Step(`^I mark unit "([^"]*)" as used$`, steps.markUsed)
	ctx.Step(`^I set the quantity of unit "([^"]*)" to (-?\d+)$`, steps.setQuantity)
	ctx.Step(`^I request the stock summary for (lab|hospital) "([^"]*)"$`, steps.summary)
	ctx.Step(`^the summary for "([^"]*)" should be (\d+)$`, steps.summaryShouldBe)
	ctx.Step(`^I trigger an expiry run with the admin token$`, steps.expireRun)
}

type unitSteps struct {
	tc TestContext
}

func (s *unitSteps) register(group string, qty int, lab, hospital string) error {
	body := map[string]any{"blood_group": group, "quantity": qty}
	if lab != "" {
		body["blood_lab_ref"] = s.tc.Recall(lab)
	}
	if hospital != "" {
		body["hospital_ref"] = s.tc.Recall(hospital)
	}
	return s.tc.POST("/units", body)
}

func (s *unitSteps) registerAtLab(_ context.Context, qty int, group, lab string) error {
	return s.register(group, qty, lab, "")
}

func (s *unitSteps) registerAtHospital(_ context.Context, qty int, group, hospital string) error {
	return s.register(group, qty, "", hospital)
}

func (s *unitSteps) registerAtBoth(_ context.Context, qty int, group, lab, hospital string) error {
	return s.register(group, qty, lab, hospital)
}

func (s *unitSteps) registerWithoutFacility(_ context.Context, qty int, group string) error {
	return s.register(group, qty, "", "")
}

func (s *unitSteps) rememberUnit(_ context.Context, name string) error {
	v, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Remember(name, fmt.Sprint(v))
	return nil
}

func (s *unitSteps) markUsed(_ context.Context, name string) error {
	return s.tc.POST("/units/"+s.tc.Recall(name)+"/use", nil)
}

func (s *unitSteps) setQuantity(_ context.Context, name string, qty int) error {
	return s.tc.PATCH("/units/"+s.tc.Recall(name)+"/quantity", map[string]any{"quantity": qty})
}

func (s *unitSteps) summary(_ context.Context, kind, facility string) error {
	return s.tc.GET("/facilities/"+s.tc.Recall(facility)+"/summary?kind="+kind, nil)
}

func (s *unitSteps) summaryShouldBe(_ context.Context, group string, want int) error {
	v, err := s.tc.GetResponseField("totals")
	if err != nil {
		return err
	}
	totals, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("totals is not an object: %v", v)
	}
	n, ok := totals[group].(float64)
	if !ok || int(n) != want {
		return fmt.Errorf("expected %s total %d, got %v", group, want, totals[group])
	}
	return nil
}

func (s *unitSteps) expireRun(_ context.Context) error {
	return s.tc.AdminPOST("/admin/units/expire")
}
