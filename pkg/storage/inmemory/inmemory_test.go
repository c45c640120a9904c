package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/storage"
	"github.com/NICxKMS/chatcore/pkg/storage/inmemory"
)

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	testModel := func(provider, id string) catalog.Model {
		return catalog.Model{
			ID:            id,
			Provider:      provider,
			Family:        "Test Family",
			Capabilities:  []string{"chat"},
			ContextWindow: 8192,
		}
	}

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
	})

	Describe("PutModel and GetModel", func() {
		It("stores and retrieves a model", func() {
			isNew, err := driver.PutModel(ctx, testModel("openai", "gpt-4o"))
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			retrieved, err := driver.GetModel(ctx, "openai", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ID).To(Equal("gpt-4o"))
			Expect(retrieved.ContextWindow).To(Equal(8192))
		})

		It("updates on repeated put", func() {
			_, err := driver.PutModel(ctx, testModel("openai", "gpt-4o"))
			Expect(err).NotTo(HaveOccurred())

			updated := testModel("openai", "gpt-4o")
			updated.ContextWindow = 128000
			isNew, err := driver.PutModel(ctx, updated)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			retrieved, err := driver.GetModel(ctx, "openai", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ContextWindow).To(Equal(128000))
		})

		It("rejects models without an ID", func() {
			_, err := driver.PutModel(ctx, catalog.Model{Provider: "openai"})
			Expect(err).To(HaveOccurred())
		})

		It("returns NotFoundError for missing models", func() {
			_, err := driver.GetModel(ctx, "openai", "nope")
			Expect(err).To(BeAssignableToTypeOf(storage.NotFoundError{}))
		})
	})

	Describe("ListModels and ListProviders", func() {
		BeforeEach(func() {
			for _, m := range []catalog.Model{
				testModel("openai", "gpt-4o"),
				testModel("openai", "gpt-3.5-turbo"),
				testModel("anthropic", "claude-3-opus"),
			} {
				_, err := driver.PutModel(ctx, m)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("lists a provider's models sorted by ID", func() {
			models, err := driver.ListModels(ctx, "openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(HaveLen(2))
			Expect(models[0].ID).To(Equal("gpt-3.5-turbo"))
			Expect(models[1].ID).To(Equal("gpt-4o"))
		})

		It("lists providers sorted", func() {
			providers, err := driver.ListProviders(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(Equal([]string{"anthropic", "openai"}))
		})
	})

	Describe("DeleteModel", func() {
		It("removes a model", func() {
			_, err := driver.PutModel(ctx, testModel("openai", "gpt-4o"))
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.DeleteModel(ctx, "openai", "gpt-4o")).To(Succeed())

			_, err = driver.GetModel(ctx, "openai", "gpt-4o")
			Expect(err).To(BeAssignableToTypeOf(storage.NotFoundError{}))
		})

		It("returns NotFoundError for missing models", func() {
			err := driver.DeleteModel(ctx, "openai", "nope")
			Expect(err).To(BeAssignableToTypeOf(storage.NotFoundError{}))
		})
	})
})
