package request_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gearguard/internal"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
)

var _ = Describe("Lifecycle", func() {
	It("lists statuses in column order", func() {
		Expect(request.Statuses()).To(Equal([]request.Status{
			request.StatusNew, request.StatusInProgress, request.StatusRepaired, request.StatusScrap,
		}))
	})

	DescribeTable("ParseStatus",
		func(raw string, want request.Status, ok bool) {
			got, valid := request.ParseStatus(raw)
			Expect(valid).To(Equal(ok))
			if ok {
				Expect(got).To(Equal(want))
			}
		},
		Entry("canonical", "IN_PROGRESS", request.StatusInProgress, true),
		Entry("lower case with spaces", " scrap ", request.StatusScrap, true),
		Entry("unknown", "DONE", request.Status(""), false),
	)

	Describe("AllowAll", func() {
		It("permits every pair", func() {
			for _, from := range request.Statuses() {
				for _, to := range request.Statuses() {
					Expect(request.CheckTransition(request.AllowAll{}, from, to, coreUser.RoleRequester)).To(Succeed())
				}
			}
		})
	})

	Describe("ExprPolicy", func() {
		It("makes SCRAP terminal when configured", func() {
			policy, err := request.PolicyFromRule(`from != "SCRAP"`)
			Expect(err).NotTo(HaveOccurred())

			Expect(request.CheckTransition(policy, request.StatusNew, request.StatusScrap, coreUser.RoleAdmin)).To(Succeed())
			err = request.CheckTransition(policy, request.StatusScrap, request.StatusNew, coreUser.RoleAdmin)
			Expect(err).To(MatchError(internal.ErrTransitionNotAllowed))
		})

		It("is not consulted when the status does not change", func() {
			policy, err := request.PolicyFromRule(`false`)
			Expect(err).NotTo(HaveOccurred())

			Expect(request.CheckTransition(policy, request.StatusScrap, request.StatusScrap, coreUser.RoleAdmin)).To(Succeed())
		})

		It("can key on role", func() {
			policy, err := request.PolicyFromRule(`role != "REQUESTER" || to != "SCRAP"`)
			Expect(err).NotTo(HaveOccurred())

			allowed, err := policy.Allow(request.StatusNew, request.StatusScrap, coreUser.RoleRequester)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())

			allowed, err = policy.Allow(request.StatusNew, request.StatusScrap, coreUser.RoleTechnician)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("rejects rules that do not compile to a boolean", func() {
			_, err := request.PolicyFromRule(`from + "x"`)
			Expect(err).To(HaveOccurred())
		})

		It("falls back to AllowAll for an empty rule", func() {
			policy, err := request.PolicyFromRule("  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(policy).To(Equal(request.AllowAll{}))
		})
	})

	Describe("CELPolicy", func() {
		It("agrees with the expr engine on the same rule", func() {
			rule := `from != "SCRAP" || role == "ADMIN"`
			celPolicy, err := request.PolicyFor(request.EngineCEL, rule)
			Expect(err).NotTo(HaveOccurred())
			exprPolicy, err := request.PolicyFor(request.EngineExpr, rule)
			Expect(err).NotTo(HaveOccurred())

			for _, role := range []coreUser.Role{coreUser.RoleAdmin, coreUser.RoleTechnician, coreUser.RoleRequester} {
				for _, from := range request.Statuses() {
					for _, to := range request.Statuses() {
						a, err := celPolicy.Allow(from, to, role)
						Expect(err).NotTo(HaveOccurred())
						b, err := exprPolicy.Allow(from, to, role)
						Expect(err).NotTo(HaveOccurred())
						Expect(a).To(Equal(b), "%s -> %s as %s", from, to, role)
					}
				}
			}
		})

		It("supports list membership", func() {
			policy, err := request.NewCELPolicy(`!(to in ["SCRAP"]) || role in ["ADMIN", "TECHNICIAN"]`)
			Expect(err).NotTo(HaveOccurred())

			err = request.CheckTransition(policy, request.StatusNew, request.StatusScrap, coreUser.RoleRequester)
			Expect(err).To(MatchError(internal.ErrTransitionNotAllowed))
			Expect(request.CheckTransition(policy, request.StatusNew, request.StatusScrap, coreUser.RoleTechnician)).To(Succeed())
		})

		It("rejects non-boolean and unknown-variable rules", func() {
			_, err := request.NewCELPolicy(`from + "x"`)
			Expect(err).To(HaveOccurred())
			_, err = request.NewCELPolicy(`status == "NEW"`)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown engine", func() {
			_, err := request.PolicyFor("lua", "true")
			Expect(err).To(HaveOccurred())
		})
	})
})
