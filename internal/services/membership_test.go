package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
)

func TestMembershipServiceRecipeEdges(t *testing.T) {
	e := newTestEnv(t)
	bg := context.Background()
	author := e.seedUser(t, "author@example.com")
	fan := e.seedUser(t, "fan@example.com")
	flour := testutil.SeedIngredient(t, bg, e.db, "flour", "g")
	recipe := testutil.SeedRecipe(t, bg, e.db, author.ID, "bread", map[uuid.UUID]int{flour.ID: 1})

	for _, kind := range []types.MembershipKind{types.MembershipFavorite, types.MembershipShoppingCart} {
		t.Run(string(kind), func(t *testing.T) {
			short, err := e.membershipSvc.AddRecipe(bg, fan.ID, kind, recipe.ID)
			if err != nil {
				t.Fatalf("AddRecipe: %v", err)
			}
			if short.ID != recipe.ID || short.Name != "bread" || short.CookingTime != recipe.CookingTime {
				t.Fatalf("short view: %+v", short)
			}
			if _, err := e.membershipSvc.AddRecipe(bg, fan.ID, kind, recipe.ID); domainagg.ReasonOf(err) != domainagg.ReasonAlreadyExists {
				t.Fatalf("duplicate add: want already_exists got %v", err)
			}
			if err := e.membershipSvc.RemoveRecipe(bg, fan.ID, kind, recipe.ID); err != nil {
				t.Fatalf("RemoveRecipe: %v", err)
			}
			if err := e.membershipSvc.RemoveRecipe(bg, fan.ID, kind, recipe.ID); domainagg.ReasonOf(err) != domainagg.ReasonMembershipNotFound {
				t.Fatalf("second remove: want membership_not_found got %v", err)
			}
		})
	}

	if _, err := e.membershipSvc.AddRecipe(bg, uuid.Nil, types.MembershipFavorite, recipe.ID); err == nil {
		t.Fatalf("anonymous add must fail")
	}
}

func TestMembershipServiceSubscriptions(t *testing.T) {
	e := newTestEnv(t)
	bg := context.Background()
	chef := e.seedUser(t, "chef@example.com")
	baker := e.seedUser(t, "baker@example.com")
	fan := e.seedUser(t, "fan@example.com")
	flour := testutil.SeedIngredient(t, bg, e.db, "flour", "g")
	for _, name := range []string{"a", "b", "c"} {
		testutil.SeedRecipe(t, bg, e.db, chef.ID, "chef-"+name, map[uuid.UUID]int{flour.ID: 1})
	}
	testutil.SeedRecipe(t, bg, e.db, baker.ID, "baker-a", map[uuid.UUID]int{flour.ID: 1})

	sub, err := e.membershipSvc.Subscribe(bg, fan.ID, chef.ID, 2)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !sub.IsSubscribed || sub.RecipesCount != 3 || len(sub.Recipes) != 2 {
		t.Fatalf("subscription view: %+v", sub)
	}
	if _, err := e.membershipSvc.Subscribe(bg, fan.ID, baker.ID, 0); err != nil {
		t.Fatalf("Subscribe baker: %v", err)
	}
	if _, err := e.membershipSvc.Subscribe(bg, fan.ID, fan.ID, 0); domainagg.ReasonOf(err) != domainagg.ReasonSelfSubscribe {
		t.Fatalf("self subscribe: want self_subscribe got %v", err)
	}

	page, err := e.membershipSvc.ListSubscriptions(bg, fan.ID, SubscriptionQuery{RecipesLimit: 1})
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("page: count=%d results=%d", page.Count, len(page.Results))
	}
	counts := map[uuid.UUID]int64{}
	for _, s := range page.Results {
		if len(s.Recipes) != 1 {
			t.Fatalf("recipes_limit not applied: %+v", s)
		}
		counts[s.ID] = s.RecipesCount
	}
	if counts[chef.ID] != 3 || counts[baker.ID] != 1 {
		t.Fatalf("recipes_count: %v", counts)
	}

	if err := e.membershipSvc.Unsubscribe(bg, fan.ID, chef.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	page, err = e.membershipSvc.ListSubscriptions(bg, fan.ID, SubscriptionQuery{})
	if err != nil {
		t.Fatalf("ListSubscriptions after unsubscribe: %v", err)
	}
	if page.Count != 1 || page.Results[0].ID != baker.ID {
		t.Fatalf("after unsubscribe: %+v", page)
	}

	if _, err := e.membershipSvc.ListSubscriptions(bg, uuid.Nil, SubscriptionQuery{}); err == nil {
		t.Fatalf("anonymous ListSubscriptions must fail")
	}
}
